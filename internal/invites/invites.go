// Package invites manages in-app invitations, separate from attendance.
package invites

import (
	"slices"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/notify"
	"github.com/AlexTLDR/flok/internal/op"
)

// IsAlreadyInvited reports whether to holds a pending or accepted invite
// for eventID.
func IsAlreadyInvited(doc *document.Document, eventID, to document.ID) bool {
	return slices.ContainsFunc(doc.Invites, func(iv document.Invite) bool {
		return iv.EventID == eventID && iv.To == to && iv.Status != document.InviteDeclined
	})
}

// Send invites each recipient once. Recipients that already hold a live
// invite, unknown users and the sender are skipped without error.
func Send(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, to []document.ID) (*document.Document, []document.Invite, error) {
	if err := actor.RequireAccount(); err != nil {
		return doc, nil, err
	}
	ev, ok := doc.Event(eventID)
	if !ok {
		return doc, nil, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	if !identity.CanView(doc, ev, actor, env.Now) {
		return doc, nil, apperr.Forbidden(apperr.CodeNotAllowed, "cannot invite to an event you cannot see")
	}

	next := doc.Clone()
	created := []document.Invite{}
	for _, id := range to {
		if id == actor.ID() || IsAlreadyInvited(next, eventID, id) {
			continue
		}
		if _, ok := next.User(id); !ok {
			continue
		}
		iv := document.Invite{
			ID:      document.NewID(),
			EventID: eventID,
			From:    actor.ID(),
			To:      id,
			At:      env.Now,
			Status:  document.InvitePending,
		}
		next.Invites = append(next.Invites, iv)
		created = append(created, iv)
		notify.Push(next, env, id, notify.TypeInvite, document.ImportanceHigh,
			env.T("Du er inviteret til %s", ev.Title))
	}
	if len(created) == 0 {
		return doc, created, nil
	}
	return next, created, nil
}

// Accept marks the invite accepted and gives the recipient a maybe answer
// unless they already answered.
func Accept(doc *document.Document, env op.Env, inviteID document.ID, actor identity.Actor) (*document.Document, error) {
	next, iv, err := recipientInvite(doc, inviteID, actor)
	if err != nil {
		return doc, err
	}
	iv.Status = document.InviteAccepted
	if ev, ok := next.Event(iv.EventID); ok {
		if _, answered := ev.Attendees[iv.To]; !answered {
			ev.Attendees[iv.To] = document.RSVP{
				Status:       document.StatusMaybe,
				By:           iv.To,
				At:           env.Now,
				WithChildren: []document.ID{},
			}
		}
	}
	return next, nil
}

// Decline marks the invite declined. Attendance is left alone.
func Decline(doc *document.Document, inviteID document.ID, actor identity.Actor) (*document.Document, error) {
	next, iv, err := recipientInvite(doc, inviteID, actor)
	if err != nil {
		return doc, err
	}
	iv.Status = document.InviteDeclined
	return next, nil
}

func recipientInvite(doc *document.Document, inviteID document.ID, actor identity.Actor) (*document.Document, *document.Invite, error) {
	if err := actor.Require(); err != nil {
		return nil, nil, err
	}
	i := doc.InviteIndex(inviteID)
	if i < 0 {
		return nil, nil, apperr.NotFound(apperr.CodeInviteNotFound, "invite not found")
	}
	if doc.Invites[i].To != actor.ID() {
		return nil, nil, apperr.Forbidden(apperr.CodeNotAllowed, "invite belongs to someone else")
	}
	next := doc.Clone()
	return next, &next.Invites[i], nil
}

// Pending lists the live invites addressed to id, newest first.
func Pending(doc *document.Document, id document.ID) []document.Invite {
	out := []document.Invite{}
	for _, iv := range doc.Invites {
		if iv.To == id && iv.Status == document.InvitePending {
			out = append(out, iv)
		}
	}
	slices.SortStableFunc(out, func(a, b document.Invite) int { return b.At.Compare(a.At) })
	return out
}
