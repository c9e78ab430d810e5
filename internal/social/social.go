// Package social implements the friend request state machine.
package social

import (
	"slices"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/notify"
	"github.com/AlexTLDR/flok/internal/op"
	"github.com/AlexTLDR/flok/internal/undo"
)

// Status describes the relation from one user towards another.
type Status string

const (
	StatusNone     Status = "none"
	StatusOutgoing Status = "outgoing"
	StatusIncoming Status = "incoming"
	StatusFriends  Status = "friends"
)

// StatusOf returns how a relates to b.
func StatusOf(doc *document.Document, a, b document.ID) Status {
	u, ok := doc.User(a)
	if !ok {
		return StatusNone
	}
	switch {
	case slices.Contains(u.Friends, b):
		return StatusFriends
	case slices.Contains(u.FriendRequestsOutgoing, b):
		return StatusOutgoing
	case slices.Contains(u.FriendRequestsIncoming, b):
		return StatusIncoming
	default:
		return StatusNone
	}
}

// pair resolves the acting account and the other user on a copy of doc.
func pair(doc *document.Document, actor identity.Actor, other document.ID) (*document.Document, *document.User, *document.User, error) {
	if err := actor.RequireAccount(); err != nil {
		return nil, nil, nil, err
	}
	if actor.ID() == other {
		return nil, nil, nil, apperr.Validation(apperr.CodeInvalidInput, "cannot befriend yourself")
	}
	next := doc.Clone()
	me, ok := next.User(actor.ID())
	if !ok {
		return nil, nil, nil, apperr.NotFound(apperr.CodeUserNotFound, "acting user not found")
	}
	them, ok := next.User(other)
	if !ok {
		return nil, nil, nil, apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}
	return next, me, them, nil
}

// SendRequest asks other to become friends. Answering a request other
// already sent counts as accepting it.
func SendRequest(doc *document.Document, env op.Env, actor identity.Actor, other document.ID) (*document.Document, error) {
	next, me, them, err := pair(doc, actor, other)
	if err != nil {
		return doc, err
	}
	switch StatusOf(doc, me.ID, them.ID) {
	case StatusFriends, StatusOutgoing:
		return doc, nil
	case StatusIncoming:
		return Accept(doc, env, actor, other)
	}

	me.FriendRequestsOutgoing = document.AddID(me.FriendRequestsOutgoing, them.ID)
	them.FriendRequestsIncoming = document.AddID(them.FriendRequestsIncoming, me.ID)
	notify.Push(next, env, me.ID, notify.TypeInfo, document.ImportanceLow,
		env.T("Venneanmodning sendt til %s", them.Name))
	return next, nil
}

// Accept confirms the request other sent to the actor.
func Accept(doc *document.Document, env op.Env, actor identity.Actor, other document.ID) (*document.Document, error) {
	next, me, them, err := pair(doc, actor, other)
	if err != nil {
		return doc, err
	}
	if !slices.Contains(me.FriendRequestsIncoming, them.ID) {
		return doc, nil
	}

	unlinkRequests(me, them)
	me.Friends = document.AddID(me.Friends, them.ID)
	them.Friends = document.AddID(them.Friends, me.ID)
	next.Friendships = append(next.Friendships, document.Friendship{
		ID:        document.NewID(),
		A:         me.ID,
		B:         them.ID,
		CreatedAt: env.Now,
	})
	notify.Push(next, env, me.ID, notify.TypeFriend, document.ImportanceHigh,
		env.T("Du og %s er nu venner", them.Name))
	return next, nil
}

// Decline drops the request other sent to the actor.
func Decline(doc *document.Document, actor identity.Actor, other document.ID) (*document.Document, error) {
	next, me, them, err := pair(doc, actor, other)
	if err != nil {
		return doc, err
	}
	if !slices.Contains(me.FriendRequestsIncoming, them.ID) && !slices.Contains(them.FriendRequestsOutgoing, me.ID) {
		return doc, nil
	}
	me.FriendRequestsIncoming = document.RemoveID(me.FriendRequestsIncoming, them.ID)
	them.FriendRequestsOutgoing = document.RemoveID(them.FriendRequestsOutgoing, me.ID)
	return next, nil
}

// Cancel withdraws the actor's request to other.
func Cancel(doc *document.Document, actor identity.Actor, other document.ID) (*document.Document, error) {
	next, me, them, err := pair(doc, actor, other)
	if err != nil {
		return doc, err
	}
	if !slices.Contains(me.FriendRequestsOutgoing, them.ID) && !slices.Contains(them.FriendRequestsIncoming, me.ID) {
		return doc, nil
	}
	me.FriendRequestsOutgoing = document.RemoveID(me.FriendRequestsOutgoing, them.ID)
	them.FriendRequestsIncoming = document.RemoveID(them.FriendRequestsIncoming, me.ID)
	return next, nil
}

// Unfriend removes the friendship between the actor and other. The returned
// command restores it; it is nil when nothing changed.
func Unfriend(doc *document.Document, actor identity.Actor, other document.ID) (*document.Document, undo.Command, error) {
	next, me, them, err := pair(doc, actor, other)
	if err != nil {
		return doc, nil, err
	}
	if !slices.Contains(me.Friends, them.ID) && !slices.Contains(them.Friends, me.ID) {
		return doc, nil, nil
	}

	record := document.Friendship{ID: document.NewID(), A: me.ID, B: them.ID}
	kept := next.Friendships[:0]
	for _, f := range next.Friendships {
		if f.Connects(me.ID, them.ID) {
			record = f
			continue
		}
		kept = append(kept, f)
	}
	next.Friendships = kept
	me.Friends = document.RemoveID(me.Friends, them.ID)
	them.Friends = document.RemoveID(them.Friends, me.ID)
	return next, undo.RestoreFriendship{Record: record}, nil
}

// Overview groups a user's relations for display.
type Overview struct {
	Friends  []document.ID `json:"friends"`
	Incoming []document.ID `json:"incoming"`
	Outgoing []document.ID `json:"outgoing"`
}

func OverviewOf(doc *document.Document, id document.ID) Overview {
	u, ok := doc.User(id)
	if !ok {
		return Overview{Friends: []document.ID{}, Incoming: []document.ID{}, Outgoing: []document.ID{}}
	}
	return Overview{
		Friends:  slices.Clone(u.Friends),
		Incoming: slices.Clone(u.FriendRequestsIncoming),
		Outgoing: slices.Clone(u.FriendRequestsOutgoing),
	}
}

func unlinkRequests(a, b *document.User) {
	a.FriendRequestsIncoming = document.RemoveID(a.FriendRequestsIncoming, b.ID)
	a.FriendRequestsOutgoing = document.RemoveID(a.FriendRequestsOutgoing, b.ID)
	b.FriendRequestsIncoming = document.RemoveID(b.FriendRequestsIncoming, a.ID)
	b.FriendRequestsOutgoing = document.RemoveID(b.FriendRequestsOutgoing, a.ID)
}
