package apperr

// Code is a machine-readable error code.
type Code string

const (
	// Validation
	CodeRequiredFields Code = "required_fields"
	CodeInvalidEmail   Code = "invalid_email"
	CodeInvalidPhone   Code = "invalid_phone"
	CodeInvalidPIN     Code = "invalid_pin"
	CodeInvalidInput   Code = "invalid_input"
	CodeUsernameTaken  Code = "username_taken"
	CodeUnknownTemp    Code = "unknown_temp_login"
	CodeWrongPIN       Code = "wrong_pin"
	CodeTempExpired    Code = "temp_login_expired"
	CodeWrongPassword  Code = "wrong_password"
	CodePollOptions    Code = "poll_options"

	// Conflict
	CodeDuplicateContact Code = "duplicate_contact"

	// Policy
	CodeRSVPDeadline    Code = "rsvp_deadline"
	CodeRSVPCapacity    Code = "rsvp_capacity"
	CodeGuestPostsOff   Code = "guest_posts_disabled"
	CodeWaitlistFull    Code = "waitlist_no_capacity"
	CodeUndoUnavailable Code = "undo_unavailable"

	// Not found
	CodeEventNotFound   Code = "event_not_found"
	CodeUserNotFound    Code = "user_not_found"
	CodePostNotFound    Code = "post_not_found"
	CodeInviteNotFound  Code = "invite_not_found"
	CodeCommentNotFound Code = "comment_not_found"
	CodeNoMatch         Code = "no_match"

	// Access
	CodeNoActor    Code = "no_actor"
	CodeNotHost    Code = "not_host"
	CodeNotAllowed Code = "not_allowed"
)
