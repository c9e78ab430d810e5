package handlers

import (
	"net/http"

	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/invites"
	"github.com/AlexTLDR/flok/internal/rsvp"
)

type rsvpRequest struct {
	Status   document.RSVPStatus `json:"status"`
	Children []document.ID       `json:"children"`
}

type rsvpResponse struct {
	rsvp.Result
	Label string `json:"label"`
}

// HandleRSVPSubmit records the session actor's answer for an event.
func HandleRSVPSubmit(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body rsvpRequest
		if !c.decode(&body) {
			return
		}
		id := c.vars("id")
		var res rsvp.Result
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, out, err := rsvp.Respond(doc, c.env, id, c.actor(doc, id), body.Status, body.Children)
			res = out
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, rsvpResponse{Result: res, Label: rsvp.Label(c.env, res.Status)})
	}
}

// HandlePromote moves a waitlisted user to yes.
func HandlePromote(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		id := c.vars("id")
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			return rsvp.PromoteFromWaitlist(doc, c.env, id, c.actor(doc, id), c.vars("user"))
		}) {
			return
		}
		c.ok(http.StatusOK, rsvp.Count(c.doc().Events[id]))
	}
}

type sendInvitesRequest struct {
	To []document.ID `json:"to"`
}

// HandleSendInvites invites friends to an event.
func HandleSendInvites(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body sendInvitesRequest
		if !c.decode(&body) {
			return
		}
		sent := []document.Invite{}
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, out, err := invites.Send(doc, c.env, c.vars("id"), c.actor(doc, ""), body.To)
			if out != nil {
				sent = out
			}
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, sent)
	}
}

// HandlePendingInvites lists the session user's open invites.
func HandlePendingInvites(s Server) http.HandlerFunc {
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
		c.ok(http.StatusOK, invites.Pending(doc, actor.ID()))
	}
}

// HandleAcceptInvite accepts an invite.
func HandleAcceptInvite(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			return invites.Accept(doc, c.env, c.vars("id"), c.actor(doc, ""))
		}) {
			return
		}
		c.ok(http.StatusNoContent, nil)
	}
}

// HandleDeclineInvite declines an invite.
func HandleDeclineInvite(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			return invites.Decline(doc, c.vars("id"), c.actor(doc, ""))
		}) {
			return
		}
		c.ok(http.StatusNoContent, nil)
	}
}
