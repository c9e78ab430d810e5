// Package rsvp applies an event's participation policy to attendance answers.
package rsvp

import (
	"slices"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/notify"
	"github.com/AlexTLDR/flok/internal/op"
)

// Result reports what was actually recorded for the actor.
type Result struct {
	Status     document.RSVPStatus `json:"status"`
	Waitlisted bool                `json:"waitlisted"`
	Promoted   []document.ID       `json:"promoted,omitempty"`
}

// Respond records the actor's answer for an event.
//
// Both policy gates are checked against the yes count as it was before the
// answer, the actor's own earlier yes included. A yes that does not fit is stored as maybe and queued when the
// event keeps a waitlist. Auto-promotion runs after every answer.
func Respond(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, desired document.RSVPStatus, childIDs []document.ID) (*document.Document, Result, error) {
	if _, ok := doc.Event(eventID); !ok {
		return doc, Result{}, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	if err := actor.Require(); err != nil {
		return doc, Result{}, err
	}
	if !desired.Valid() {
		return doc, Result{}, apperr.Validation(apperr.CodeInvalidInput, "unknown rsvp status")
	}

	next := doc.Clone()
	ev, _ := next.Event(eventID)
	id := actor.ID()

	yes := ev.YesCount()
	limit, capped := ev.Capacity()
	if err := checkPolicy(ev, env, desired, yes, limit, capped); err != nil {
		return doc, Result{}, err
	}

	res := Result{Status: desired}
	if desired == document.StatusYes && capped && yes >= limit && ev.Waitlist {
		res.Status = document.StatusMaybe
		res.Waitlisted = true
		ev.WaitlistQueue = document.AddID(ev.WaitlistQueue, id)
	} else {
		ev.WaitlistQueue = document.RemoveID(ev.WaitlistQueue, id)
	}

	ev.Attendees[id] = document.RSVP{
		Status:       res.Status,
		By:           id,
		At:           env.Now,
		WithChildren: ownChildren(next, id, childIDs),
	}

	if ev.AutoPromote {
		res.Promoted = promote(next, env, ev)
		if slices.Contains(res.Promoted, id) {
			res.Status = document.StatusYes
			res.Waitlisted = false
		}
	}

	name := identity.DisplayName(next, ev.ID, id, env.T("Gæst"))
	notify.Push(next, env, ev.HostID, notify.TypeRSVP, document.ImportanceHigh,
		env.T("%s svarede %s", name, Label(env, res.Status)))
	return next, res, nil
}

func checkPolicy(ev *document.Event, env op.Env, desired document.RSVPStatus, yes, limit int, capped bool) error {
	policy := ev.RSVPPolicy
	deadlineOK := policy.Type == document.PolicyNone || policy.Type == document.PolicyMax ||
		policy.Deadline == nil || !env.Now.After(*policy.Deadline)
	if !deadlineOK {
		return apperr.Policy(apperr.CodeRSVPDeadline, "the rsvp deadline has passed")
	}

	capacityOK := policy.Type == document.PolicyNone || policy.Type == document.PolicyDeadline ||
		!capped || yes < limit || desired != document.StatusYes || ev.Waitlist
	if !capacityOK {
		return apperr.Policy(apperr.CodeRSVPCapacity, "the event is full")
	}
	return nil
}

// PromoteFromWaitlist moves one waitlisted actor to yes. Only the host or a
// co-host may do this and it does not trigger auto-promotion.
func PromoteFromWaitlist(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, userID document.ID) (*document.Document, error) {
	ev, ok := doc.Event(eventID)
	if !ok {
		return doc, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	if err := identity.RequireManager(ev, actor); err != nil {
		return doc, err
	}
	if _, ok := ev.Attendees[userID]; !ok && !slices.Contains(ev.WaitlistQueue, userID) {
		return doc, apperr.NotFound(apperr.CodeUserNotFound, "actor is not on the waitlist")
	}
	if limit, capped := ev.Capacity(); capped && yesCountExcluding(ev, userID) >= limit {
		return doc, apperr.Policy(apperr.CodeWaitlistFull, "no free places to promote into")
	}

	next := doc.Clone()
	ev, _ = next.Event(eventID)
	admit(ev, env, userID)
	notifyPromoted(next, env, ev, userID)
	return next, nil
}

// promote pops the waitlist front into yes while places remain.
func promote(doc *document.Document, env op.Env, ev *document.Event) []document.ID {
	var promoted []document.ID
	for len(ev.WaitlistQueue) > 0 && ev.HasRoom() {
		id := ev.WaitlistQueue[0]
		admit(ev, env, id)
		promoted = append(promoted, id)
		notifyPromoted(doc, env, ev, id)
	}
	return promoted
}

func admit(ev *document.Event, env op.Env, id document.ID) {
	rec, ok := ev.Attendees[id]
	if !ok {
		rec = document.RSVP{By: id, At: env.Now, WithChildren: []document.ID{}}
	}
	rec.Status = document.StatusYes
	ev.Attendees[id] = rec
	ev.WaitlistQueue = document.RemoveID(ev.WaitlistQueue, id)
}

func notifyPromoted(doc *document.Document, env op.Env, ev *document.Event, id document.ID) {
	notify.Push(doc, env, id, notify.TypeRSVP, document.ImportanceHigh,
		env.T("Du har fået en plads til %s", ev.Title))
}

// yesCountExcluding counts yes answers other than id's own.
func yesCountExcluding(ev *document.Event, id document.ID) int {
	n := ev.YesCount()
	if rec, ok := ev.Attendees[id]; ok && rec.Status == document.StatusYes {
		n--
	}
	return n
}

// ownChildren keeps only ids of the actor's own children, in order and
// without repeats.
func ownChildren(doc *document.Document, id document.ID, childIDs []document.ID) []document.ID {
	out := []document.ID{}
	u, ok := doc.User(id)
	if !ok || !u.IsParent {
		return out
	}
	for _, c := range childIDs {
		if u.HasChild(c) {
			out = document.AddID(out, c)
		}
	}
	return out
}

// Label returns the localized name of an answer.
func Label(env op.Env, s document.RSVPStatus) string {
	switch s {
	case document.StatusYes:
		return env.T("Deltager")
	case document.StatusNo:
		return env.T("Deltager ikke")
	default:
		return env.T("Måske")
	}
}

// Tally summarizes an event's answers.
type Tally struct {
	Yes      int `json:"yes"`
	No       int `json:"no"`
	Maybe    int `json:"maybe"`
	Children int `json:"children"`
	Waiting  int `json:"waiting"`
	Free     int `json:"free"`
}

// Count tallies ev. Free is -1 when the event has no guest limit.
func Count(ev *document.Event) Tally {
	t := Tally{Waiting: len(ev.WaitlistQueue), Free: -1}
	for _, r := range ev.Attendees {
		switch r.Status {
		case document.StatusYes:
			t.Yes++
			t.Children += len(r.WithChildren)
		case document.StatusNo:
			t.No++
		case document.StatusMaybe:
			t.Maybe++
		}
	}
	if limit, ok := ev.Capacity(); ok {
		t.Free = max(limit-t.Yes, 0)
	}
	return t
}
