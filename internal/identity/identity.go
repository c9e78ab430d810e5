// Package identity resolves who is acting: a permanent account or an
// event-scoped temporary login.
package identity

import (
	"time"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
)

type Kind int

const (
	KindNone Kind = iota
	KindAccount
	KindTemporary
)

func (k Kind) String() string {
	switch k {
	case KindAccount:
		return "account"
	case KindTemporary:
		return "temporary"
	default:
		return "none"
	}
}

// Actor is the resolved identity behind an operation. Temporary actors are
// bound to one event and act through the synthetic user created with their
// login.
type Actor struct {
	Kind     Kind
	UserID   document.ID
	EventID  document.ID
	Username string
}

func Account(userID document.ID) Actor {
	return Actor{Kind: KindAccount, UserID: userID}
}

func Temporary(eventID document.ID, username string, userID document.ID) Actor {
	return Actor{Kind: KindTemporary, UserID: userID, EventID: eventID, Username: username}
}

// ID is the id the actor is recorded under in attendees, posts and likes.
func (a Actor) ID() document.ID {
	return a.UserID
}

func (a Actor) IsZero() bool {
	return a.Kind == KindNone || a.UserID == ""
}

func (a Actor) IsAccount() bool {
	return a.Kind == KindAccount && a.UserID != ""
}

// Require fails with an unauthenticated error when no actor was resolved.
func (a Actor) Require() error {
	if a.IsZero() {
		return apperr.Unauthenticated(apperr.CodeNoActor, "no actor for this session")
	}
	return nil
}

// RequireAccount fails unless the actor is a permanent account.
func (a Actor) RequireAccount() error {
	if !a.IsAccount() {
		return apperr.Unauthenticated(apperr.CodeNoActor, "a permanent account is required")
	}
	return nil
}

// Resolve returns the actor for sessionID. An account always wins; a
// temporary login only counts for its own event, or when eventID is empty.
func Resolve(doc *document.Document, sessionID string, eventID document.ID) Actor {
	s, ok := doc.Sessions[sessionID]
	if !ok {
		return Actor{}
	}
	if s.UserID != "" {
		if _, ok := doc.User(s.UserID); ok {
			return Account(s.UserID)
		}
	}
	if s.Temp == nil || (eventID != "" && s.Temp.EventID != eventID) {
		return Actor{}
	}
	ev, ok := doc.Event(s.Temp.EventID)
	if !ok {
		return Actor{}
	}
	login, ok := ev.TempAccounts[s.Temp.Username]
	if !ok {
		return Actor{}
	}
	return Temporary(ev.ID, s.Temp.Username, login.UserID)
}

// DisplayName names id within an event. Real names win over temporary
// usernames; unknown ids fall back to guestLabel.
func DisplayName(doc *document.Document, eventID, id document.ID, guestLabel string) string {
	if u, ok := doc.User(id); ok && u.Name != "" {
		return u.Name
	}
	if ev, ok := doc.Event(eventID); ok {
		if name, _, ok := ev.TempLoginByUser(id); ok {
			return name
		}
	}
	return guestLabel
}

// CanView reports whether actor may see ev.
func CanView(doc *document.Document, ev *document.Event, actor Actor, now time.Time) bool {
	if ev == nil {
		return false
	}
	if ev.IsPublic {
		return true
	}
	if actor.IsZero() {
		return false
	}
	id := actor.ID()
	if ev.IsHostOrCohost(id) {
		return true
	}
	if _, ok := ev.Attendees[id]; ok {
		return true
	}
	for _, iv := range doc.Invites {
		if iv.EventID == ev.ID && iv.To == id && iv.Status != document.InviteDeclined {
			return true
		}
	}
	if actor.Kind == KindTemporary && actor.EventID == ev.ID {
		if login, ok := ev.TempAccounts[actor.Username]; ok && now.Before(login.ExpiresAt) {
			return true
		}
	}
	return false
}

// RequireManager fails unless actor is the host or a co-host of ev.
func RequireManager(ev *document.Event, actor Actor) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if !ev.IsHostOrCohost(actor.ID()) {
		return apperr.Forbidden(apperr.CodeNotHost, "only the host or a co-host may do this")
	}
	return nil
}

// RequireHost fails unless actor owns ev.
func RequireHost(ev *document.Event, actor Actor) error {
	if err := actor.Require(); err != nil {
		return err
	}
	if !ev.IsHost(actor.ID()) {
		return apperr.Forbidden(apperr.CodeNotHost, "only the host may do this")
	}
	return nil
}
