// Package accounts registers permanent users, logs them in and out, and
// issues event-scoped temporary logins.
package accounts

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/op"
	"github.com/AlexTLDR/flok/internal/utils"
)

// TempLoginLifetime is counted from the event's start.
const TempLoginLifetime = 30 * 24 * time.Hour

var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

// Contact is what a permanent account is created or upgraded from.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Profile holds the fields a user edits on their own profile page.
type Profile struct {
	Name     string           `json:"name"`
	IsParent bool             `json:"isParent"`
	Children []document.Child `json:"children"`
	Socials  document.Socials `json:"socials"`
}

// clean trims c and normalizes its phone number for region. Every field
// problem is reported, not just the first.
func (c Contact) clean(region string) (Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = utils.NormalizeEmail(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" || c.Email == "" || c.Phone == "" {
		return c, apperr.Validation(apperr.CodeRequiredFields, "name, email and phone are required")
	}

	var errs error
	if !utils.ValidEmail(c.Email) {
		errs = multierr.Append(errs, apperr.Validation(apperr.CodeInvalidEmail, "invalid email address"))
	}
	phone, err := utils.NormalizePhoneNumber(c.Phone, region)
	if err != nil {
		errs = multierr.Append(errs, apperr.Wrap(apperr.KindValidation, apperr.CodeInvalidPhone, "invalid phone number", err))
	} else {
		c.Phone = phone
	}
	return c, errs
}

// checkUnique fails when another user already has c's email or phone.
func checkUnique(doc *document.Document, c Contact, self document.ID, region string) error {
	for id, u := range doc.Users {
		if id == self {
			continue
		}
		if utils.NormalizeEmail(u.Email) == c.Email || utils.SamePhone(u.Phone, c.Phone, region) {
			return apperr.Conflict(apperr.CodeDuplicateContact, "email or phone already belongs to another user")
		}
	}
	return nil
}

func newUser(name string, now time.Time) *document.User {
	return &document.User{
		ID:                     document.NewID(),
		Name:                   name,
		Children:               []document.Child{},
		Friends:                []document.ID{},
		FriendRequestsIncoming: []document.ID{},
		FriendRequestsOutgoing: []document.ID{},
		CreatedAt:              now,
	}
}

// Register creates a permanent user and binds sessionID to it.
func Register(doc *document.Document, env op.Env, sessionID string, c Contact, region string) (*document.Document, *document.User, error) {
	c, err := c.clean(region)
	if err != nil {
		return doc, nil, err
	}
	if err := checkUnique(doc, c, "", region); err != nil {
		return doc, nil, err
	}

	next := doc.Clone()
	u := newUser(c.Name, env.Now)
	u.Email = c.Email
	u.Phone = c.Phone
	next.Users[u.ID] = u
	identity.BindAccount(next, sessionID, u.ID)
	return next, u, nil
}

// Login binds sessionID to the oldest user matching email or phone.
func Login(doc *document.Document, sessionID, email, phone, region string) (*document.Document, *document.User, error) {
	email = utils.NormalizeEmail(email)
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return doc, nil, apperr.Validation(apperr.CodeRequiredFields, "email or phone is required")
	}

	var matches []*document.User
	for _, u := range doc.Users {
		if (email != "" && utils.NormalizeEmail(u.Email) == email) ||
			(phone != "" && utils.SamePhone(u.Phone, phone, region)) {
			matches = append(matches, u)
		}
	}
	if len(matches) == 0 {
		return doc, nil, apperr.NotFound(apperr.CodeUserNotFound, "no user with that email or phone")
	}
	slices.SortFunc(matches, func(a, b *document.User) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	next := doc.Clone()
	identity.BindAccount(next, sessionID, matches[0].ID)
	return next, next.Users[matches[0].ID], nil
}

// LoginByEmail is Login for a verified address from an identity provider.
func LoginByEmail(doc *document.Document, sessionID, email string) (*document.Document, *document.User, error) {
	return Login(doc, sessionID, email, "", "")
}

// Logout drops the account from sessionID. A temporary login survives.
func Logout(doc *document.Document, sessionID string) *document.Document {
	if _, ok := doc.Sessions[sessionID]; !ok {
		return doc
	}
	next := doc.Clone()
	identity.Unbind(next, sessionID)
	return next
}

// ConvertToPermanent gives the actor's user full contact details so it can
// log in like any account. The user id is kept, so RSVPs and posts made
// through a temporary login stay attached.
func ConvertToPermanent(doc *document.Document, sessionID string, actor identity.Actor, c Contact, region string) (*document.Document, *document.User, error) {
	if err := actor.Require(); err != nil {
		return doc, nil, err
	}
	if _, ok := doc.User(actor.ID()); !ok {
		return doc, nil, apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}
	c, err := c.clean(region)
	if err != nil {
		return doc, nil, err
	}
	if err := checkUnique(doc, c, actor.ID(), region); err != nil {
		return doc, nil, err
	}

	next := doc.Clone()
	u := next.Users[actor.ID()]
	u.Name = c.Name
	u.Email = c.Email
	u.Phone = c.Phone
	identity.BindAccount(next, sessionID, u.ID)
	return next, u, nil
}

// UpdateProfile edits the actor's own user. Children without an id get one;
// a non-parent has no children.
func UpdateProfile(doc *document.Document, actor identity.Actor, p Profile) (*document.Document, error) {
	if err := actor.Require(); err != nil {
		return doc, err
	}
	if _, ok := doc.User(actor.ID()); !ok {
		return doc, apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}

	children := []document.Child{}
	if p.IsParent {
		for _, c := range p.Children {
			c.Name = strings.TrimSpace(c.Name)
			if c.Name == "" {
				continue
			}
			if c.ID == "" {
				c.ID = document.NewID()
			}
			c.Age = max(c.Age, 0)
			children = append(children, c)
		}
	}

	next := doc.Clone()
	u := next.Users[actor.ID()]
	if name := strings.TrimSpace(p.Name); name != "" {
		u.Name = name
	}
	u.IsParent = p.IsParent
	u.Children = children
	u.Socials = p.Socials
	return next, nil
}

// CreateTempLogin registers username with pin on an event, creates the
// synthetic user behind it and binds sessionID to the new login only.
func CreateTempLogin(doc *document.Document, env op.Env, sessionID string, eventID document.ID, username, pin string) (*document.Document, identity.Actor, error) {
	ev, ok := doc.Event(eventID)
	if !ok {
		return doc, identity.Actor{}, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return doc, identity.Actor{}, apperr.Validation(apperr.CodeRequiredFields, "username is required")
	}
	if !pinPattern.MatchString(pin) {
		return doc, identity.Actor{}, apperr.Validation(apperr.CodeInvalidPIN, "pin must be 4 to 6 digits")
	}
	if _, taken := ev.TempAccounts[username]; taken {
		return doc, identity.Actor{}, apperr.Validation(apperr.CodeUsernameTaken, "username already used for this event")
	}

	next := doc.Clone()
	u := newUser(username, env.Now)
	next.Users[u.ID] = u
	target := next.Events[eventID]
	if target.TempAccounts == nil {
		target.TempAccounts = map[string]document.TempLogin{}
	}
	target.TempAccounts[username] = document.TempLogin{
		PIN:       pin,
		CreatedAt: env.Now,
		ExpiresAt: target.Start.Add(TempLoginLifetime),
		UserID:    u.ID,
	}
	identity.BindTemporary(next, sessionID, eventID, username)
	return next, identity.Temporary(eventID, username, u.ID), nil
}

// AuthTemp signs sessionID in with an existing temporary login.
func AuthTemp(doc *document.Document, env op.Env, sessionID string, eventID document.ID, username, pin string) (*document.Document, identity.Actor, error) {
	ev, ok := doc.Event(eventID)
	if !ok {
		return doc, identity.Actor{}, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	username = strings.TrimSpace(username)
	login, ok := ev.TempAccounts[username]
	switch {
	case !ok:
		return doc, identity.Actor{}, apperr.Validation(apperr.CodeUnknownTemp, "unknown username for this event")
	case login.PIN != pin:
		return doc, identity.Actor{}, apperr.Validation(apperr.CodeWrongPIN, "wrong pin")
	case !env.Now.Before(login.ExpiresAt):
		return doc, identity.Actor{}, apperr.Validation(apperr.CodeTempExpired, "temporary login has expired")
	}

	next := doc.Clone()
	identity.BindTemporary(next, sessionID, eventID, username)
	return next, identity.Temporary(eventID, username, login.UserID), nil
}
