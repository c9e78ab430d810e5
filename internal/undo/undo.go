// Package undo stores snapshots of sub-state removed by destructive actions
// so they can be restored for a short while afterwards.
package undo

import (
	"slices"

	"github.com/AlexTLDR/flok/internal/document"
)

// Command restores a captured snapshot onto a later document.
type Command interface {
	Apply(doc *document.Document) *document.Document
}

// RestoreEvent puts a deleted event back exactly as it was.
type RestoreEvent struct {
	Event *document.Event
}

func (c RestoreEvent) Apply(doc *document.Document) *document.Document {
	next := doc.Clone()
	if c.Event != nil {
		next.Events[c.Event.ID] = c.Event.Clone()
	}
	return next
}

// RestoreToken reinstates an event's previous invite token.
type RestoreToken struct {
	EventID document.ID
	Token   string
}

func (c RestoreToken) Apply(doc *document.Document) *document.Document {
	next := doc.Clone()
	if ev, ok := next.Event(c.EventID); ok {
		ev.InviteToken = c.Token
	}
	return next
}

// RestoreFriendship re-links two users and their shared record.
type RestoreFriendship struct {
	Record document.Friendship
}

func (c RestoreFriendship) Apply(doc *document.Document) *document.Document {
	next := doc.Clone()
	a, okA := next.User(c.Record.A)
	b, okB := next.User(c.Record.B)
	if !okA || !okB {
		return next
	}
	a.Friends = document.AddID(a.Friends, b.ID)
	b.Friends = document.AddID(b.Friends, a.ID)
	a.FriendRequestsIncoming = document.RemoveID(a.FriendRequestsIncoming, b.ID)
	a.FriendRequestsOutgoing = document.RemoveID(a.FriendRequestsOutgoing, b.ID)
	b.FriendRequestsIncoming = document.RemoveID(b.FriendRequestsIncoming, a.ID)
	b.FriendRequestsOutgoing = document.RemoveID(b.FriendRequestsOutgoing, a.ID)
	if !slices.ContainsFunc(next.Friendships, func(f document.Friendship) bool { return f.Connects(a.ID, b.ID) }) {
		next.Friendships = append(next.Friendships, c.Record)
	}
	return next
}

// RestoreNotifications re-inserts a cleared set of notifications.
type RestoreNotifications struct {
	Removed []document.Notification
}

func (c RestoreNotifications) Apply(doc *document.Document) *document.Document {
	next := doc.Clone()
	present := make(map[document.ID]struct{}, len(next.Notifications))
	for _, n := range next.Notifications {
		present[n.ID] = struct{}{}
	}
	for _, n := range c.Removed {
		if _, ok := present[n.ID]; !ok {
			next.Notifications = append(next.Notifications, n)
		}
	}
	return next
}
