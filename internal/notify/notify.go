// Package notify manages per-owner notifications and system alerts.
package notify

import (
	"log"
	"slices"

	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/op"
	"github.com/AlexTLDR/flok/internal/undo"
)

// Notification types.
const (
	TypeInfo    = "info"
	TypeRSVP    = "rsvp"
	TypeFriend  = "friend"
	TypeInvite  = "invite"
	TypePost    = "post"
	TypeLike    = "like"
	TypeComment = "comment"
	TypeChat    = "chat"
)

// Push appends a notification for owner to doc in place.
func Push(doc *document.Document, env op.Env, owner document.ID, kind string, importance document.Importance, text string) document.Notification {
	n := document.Notification{
		ID:         document.NewID(),
		Text:       text,
		At:         env.Now,
		Type:       kind,
		Owner:      owner,
		Importance: importance,
	}
	doc.Notifications = append(doc.Notifications, n)
	return n
}

// Inbox is one owner's notifications, newest first, split by importance.
type Inbox struct {
	High   []document.Notification `json:"high"`
	Low    []document.Notification `json:"low"`
	Unread int                     `json:"unread"`
}

// ForOwner lists owner's notifications.
func ForOwner(doc *document.Document, owner document.ID) Inbox {
	var mine []document.Notification
	for _, n := range doc.Notifications {
		if n.Owner == owner {
			mine = append(mine, n)
		}
	}
	slices.SortStableFunc(mine, func(a, b document.Notification) int {
		return b.At.Compare(a.At)
	})

	inbox := Inbox{High: []document.Notification{}, Low: []document.Notification{}}
	for _, n := range mine {
		if !n.Read {
			inbox.Unread++
		}
		if n.Importance == document.ImportanceHigh {
			inbox.High = append(inbox.High, n)
		} else {
			inbox.Low = append(inbox.Low, n)
		}
	}
	return inbox
}

// MarkAllRead flags every notification owned by owner as read.
func MarkAllRead(doc *document.Document, owner document.ID) *document.Document {
	next := doc.Clone()
	for i := range next.Notifications {
		if next.Notifications[i].Owner == owner {
			next.Notifications[i].Read = true
		}
	}
	return next
}

// Clear removes owner's notifications and returns a command that puts the
// exact removed set back.
func Clear(doc *document.Document, owner document.ID) (*document.Document, undo.Command) {
	next := doc.Clone()
	var removed []document.Notification
	kept := next.Notifications[:0]
	for _, n := range next.Notifications {
		if n.Owner == owner {
			removed = append(removed, n)
			continue
		}
		kept = append(kept, n)
	}
	next.Notifications = kept
	return next, undo.RestoreNotifications{Removed: removed}
}

// Alerter raises a system-level alert for an important notification.
type Alerter interface {
	Alert(n document.Notification)
}

// LogAlerter writes alerts to the standard logger.
type LogAlerter struct{}

func (LogAlerter) Alert(n document.Notification) {
	log.Printf("alert for %s: %s", n.Owner, n.Text)
}

// Dispatch alerts on every high-importance notification present in after
// but not in before.
func Dispatch(a Alerter, before, after *document.Document) {
	if a == nil || after == nil {
		return
	}
	seen := map[document.ID]struct{}{}
	if before != nil {
		for _, n := range before.Notifications {
			seen[n.ID] = struct{}{}
		}
	}
	for _, n := range after.Notifications {
		if _, ok := seen[n.ID]; ok || n.Importance != document.ImportanceHigh {
			continue
		}
		a.Alert(n)
	}
}
