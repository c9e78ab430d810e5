package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AlexTLDR/flok/internal/apperr"
)

// errorMessages are the user-facing texts for domain error codes.
var errorMessages = map[apperr.Code]string{
	apperr.CodeRequiredFields:   "Udfyld de påkrævede felter",
	apperr.CodeInvalidEmail:     "Ugyldig e-mail",
	apperr.CodeInvalidPhone:     "Ugyldigt telefonnummer",
	apperr.CodeInvalidPIN:       "PIN skal være 4-6 cifre",
	apperr.CodeInvalidInput:     "Ugyldigt input",
	apperr.CodeUsernameTaken:    "Brugernavnet er allerede i brug til denne begivenhed",
	apperr.CodeUnknownTemp:      "Ukendt brugernavn",
	apperr.CodeWrongPIN:         "Forkert PIN",
	apperr.CodeTempExpired:      "Login er udløbet",
	apperr.CodeWrongPassword:    "Forkert adgangskode",
	apperr.CodePollOptions:      "En afstemning skal have mindst to svarmuligheder",
	apperr.CodeDuplicateContact: "E-mail eller telefon er allerede i brug",
	apperr.CodeRSVPDeadline:     "Svarfristen er overskredet",
	apperr.CodeRSVPCapacity:     "Begivenheden er fuld",
	apperr.CodeGuestPostsOff:    "Gæsteopslag er slået fra",
	apperr.CodeWaitlistFull:     "Der er ingen ledige pladser",
	apperr.CodeUndoUnavailable:  "Kan ikke fortrydes længere",
	apperr.CodeEventNotFound:    "Begivenheden findes ikke",
	apperr.CodeUserNotFound:     "Brugeren findes ikke",
	apperr.CodePostNotFound:     "Opslaget findes ikke",
	apperr.CodeInviteNotFound:   "Invitationen findes ikke",
	apperr.CodeCommentNotFound:  "Kommentaren findes ikke",
	apperr.CodeNoMatch:          "Ingen begivenhed matcher koden",
	apperr.CodeNoActor:          "Log ind for at fortsætte",
	apperr.CodeNotHost:          "Kun værten kan gøre dette",
	apperr.CodeNotAllowed:       "Du har ikke adgang",
}

const genericError = "Noget gik galt"

// ErrorMessage is the text shown to a user for err.
func ErrorMessage(p *message.Printer, err error) string {
	key := genericError
	if e, ok := apperr.As(err); ok {
		if m, ok := errorMessages[e.Code]; ok {
			key = m
		}
	}
	return p.Sprintf(key)
}

func init() {
	lang := language.English

	// Engine notifications and labels
	message.SetString(lang, "Gæst", "Guest")
	message.SetString(lang, "Deltager", "Attending")
	message.SetString(lang, "Deltager ikke", "Not attending")
	message.SetString(lang, "Måske", "Maybe")
	message.SetString(lang, "%s svarede %s", "%s answered %s")
	message.SetString(lang, "Du har fået en plads til %s", "You got a place at %s")
	message.SetString(lang, "Venneanmodning sendt til %s", "Friend request sent to %s")
	message.SetString(lang, "Du og %s er nu venner", "You and %s are now friends")
	message.SetString(lang, "Du er inviteret til %s", "You are invited to %s")
	message.SetString(lang, "Værtsopslag delt i %s", "Host post shared in %s")
	message.SetString(lang, "Ny afstemning oprettet i %s", "New poll created in %s")
	message.SetString(lang, "Afstemning", "Poll")
	message.SetString(lang, "%s synes godt om et opslag", "%s liked a post")
	message.SetString(lang, "%s kommenterede på et opslag", "%s commented on a post")
	message.SetString(lang, "%s skrev i chatten", "%s wrote in the chat")
	message.SetString(lang, "Ny begivenhed", "New event")
	message.SetString(lang, " (kopi)", " (copy)")
	message.SetString(lang, "Du er inviteret", "You are invited")
	message.SetString(lang, "Svar på invitationen", "Answer the invitation")
	message.SetString(lang, "Tilføj til kalender", "Add to calendar")
	message.SetString(lang, "Invitationen kunne ikke læses", "The invitation could not be read")
	message.SetString(lang, "Privat begivenhed", "Private event")
	message.SetString(lang, "Offentlig begivenhed", "Public event")
	message.SetString(lang, "Tid", "Time")
	message.SetString(lang, "Sted", "Place")
	message.SetString(lang, genericError, "Something went wrong")

	// Guest list export
	message.SetString(lang, "Navn", "Name")
	message.SetString(lang, "Telefon", "Phone")
	message.SetString(lang, "E-mail", "Email")
	message.SetString(lang, "Svar", "Answer")
	message.SetString(lang, "Børn", "Children")
	message.SetString(lang, "Venteliste", "Waitlist")
	message.SetString(lang, "Svaret", "Answered")
	message.SetString(lang, "Ja", "Yes")
	message.SetString(lang, "Nej", "No")

	// Errors
	message.SetString(lang, "Udfyld de påkrævede felter", "Fill in the required fields")
	message.SetString(lang, "Ugyldig e-mail", "Invalid email")
	message.SetString(lang, "Ugyldigt telefonnummer", "Invalid phone number")
	message.SetString(lang, "PIN skal være 4-6 cifre", "PIN must be 4-6 digits")
	message.SetString(lang, "Ugyldigt input", "Invalid input")
	message.SetString(lang, "Brugernavnet er allerede i brug til denne begivenhed", "The username is already used for this event")
	message.SetString(lang, "Ukendt brugernavn", "Unknown username")
	message.SetString(lang, "Forkert PIN", "Wrong PIN")
	message.SetString(lang, "Login er udløbet", "The login has expired")
	message.SetString(lang, "Forkert adgangskode", "Wrong password")
	message.SetString(lang, "En afstemning skal have mindst to svarmuligheder", "A poll needs at least two options")
	message.SetString(lang, "E-mail eller telefon er allerede i brug", "Email or phone is already in use")
	message.SetString(lang, "Svarfristen er overskredet", "The RSVP deadline has passed")
	message.SetString(lang, "Begivenheden er fuld", "The event is full")
	message.SetString(lang, "Gæsteopslag er slået fra", "Guest posts are turned off")
	message.SetString(lang, "Der er ingen ledige pladser", "There are no free places")
	message.SetString(lang, "Kan ikke fortrydes længere", "Can no longer be undone")
	message.SetString(lang, "Begivenheden findes ikke", "The event does not exist")
	message.SetString(lang, "Brugeren findes ikke", "The user does not exist")
	message.SetString(lang, "Opslaget findes ikke", "The post does not exist")
	message.SetString(lang, "Invitationen findes ikke", "The invitation does not exist")
	message.SetString(lang, "Kommentaren findes ikke", "The comment does not exist")
	message.SetString(lang, "Ingen begivenhed matcher koden", "No event matches the code")
	message.SetString(lang, "Log ind for at fortsætte", "Log in to continue")
	message.SetString(lang, "Kun værten kan gøre dette", "Only the host can do this")
	message.SetString(lang, "Du har ikke adgang", "You do not have access")
}
