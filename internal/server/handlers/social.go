package handlers

import (
	"net/http"

	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/notify"
	"github.com/AlexTLDR/flok/internal/op"
	"github.com/AlexTLDR/flok/internal/social"
	"github.com/AlexTLDR/flok/internal/undo"
)

// HandleFriends lists the session user's friends and open requests.
func HandleFriends(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		doc := c.doc()
		actor := c.actor(doc, "")
		if err := actor.RequireAccount(); err != nil {
			c.fail(err)
			return
		}
		c.ok(http.StatusOK, social.OverviewOf(doc, actor.ID()))
	}
}

// FriendStep is one transition of the friend request flow.
type FriendStep func(doc *document.Document, env op.Env, actor identity.Actor, other document.ID) (*document.Document, error)

// HandleFriendStep runs one transition of the friend request flow against
// the user named in the path and answers with the resulting relation.
func HandleFriendStep(s Server, step FriendStep) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		other := c.vars("id")
		var status social.Status
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			actor := c.actor(doc, "")
			next, err := step(doc, c.env, actor, other)
			if err == nil {
				status = social.StatusOf(next, actor.ID(), other)
			}
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, map[string]social.Status{"relation": status})
	}
}

// DeclineFriend is social.Decline shaped as a FriendStep.
func DeclineFriend(doc *document.Document, _ op.Env, actor identity.Actor, other document.ID) (*document.Document, error) {
	return social.Decline(doc, actor, other)
}

// CancelFriendRequest is social.Cancel shaped as a FriendStep.
func CancelFriendRequest(doc *document.Document, _ op.Env, actor identity.Actor, other document.ID) (*document.Document, error) {
	return social.Cancel(doc, actor, other)
}

// HandleUnfriend ends a friendship and hands back an undo token.
func HandleUnfriend(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var cmd undo.Command
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, restore, err := social.Unfriend(doc, c.actor(doc, ""), c.vars("id"))
			cmd = restore
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, undoBody{Undo: c.remember(cmd)})
	}
}

// HandleNotifications returns the session actor's inbox.
func HandleNotifications(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		doc := c.doc()
		actor := c.actor(doc, "")
		if err := actor.Require(); err != nil {
			c.fail(err)
			return
		}
		c.ok(http.StatusOK, notify.ForOwner(doc, actor.ID()))
	}
}

// HandleMarkNotificationsRead marks the whole inbox as read.
func HandleMarkNotificationsRead(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			actor := c.actor(doc, "")
			if err := actor.Require(); err != nil {
				return doc, err
			}
			return notify.MarkAllRead(doc, actor.ID()), nil
		}) {
			return
		}
		c.ok(http.StatusNoContent, nil)
	}
}

// HandleClearNotifications empties the inbox and hands back an undo token.
func HandleClearNotifications(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var cmd undo.Command
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			actor := c.actor(doc, "")
			if err := actor.Require(); err != nil {
				return doc, err
			}
			next, restore := notify.Clear(doc, actor.ID())
			cmd = restore
			return next, nil
		}) {
			return
		}
		c.ok(http.StatusOK, undoBody{Undo: c.remember(cmd)})
	}
}
