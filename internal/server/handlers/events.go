package handlers

import (
	"net/http"
	"slices"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/events"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/rsvp"
	"github.com/AlexTLDR/flok/internal/undo"
)

// passwordParam carries the password for protected events.
const passwordParam = "password"

// viewable returns the event when the actor may see it. Managers skip the
// password gate.
func (c *call) viewable(doc *document.Document, eventID document.ID) (*document.Event, identity.Actor, bool) {
	ev, ok := doc.Event(eventID)
	if !ok {
		c.fail(apperr.NotFound(apperr.CodeEventNotFound, "event not found"))
		return nil, identity.Actor{}, false
	}
	actor := c.actor(doc, eventID)
	if !identity.CanView(doc, ev, actor, c.env.Now) {
		c.fail(apperr.Forbidden(apperr.CodeNotAllowed, "event is not visible"))
		return nil, actor, false
	}
	if actor.IsZero() || !ev.IsHostOrCohost(actor.ID()) {
		if err := events.CheckPassword(ev, c.r.URL.Query().Get(passwordParam)); err != nil {
			c.fail(err)
			return nil, actor, false
		}
	}
	return ev, actor, true
}

type attendeeView struct {
	ID           document.ID         `json:"id"`
	Name         string              `json:"name"`
	Status       document.RSVPStatus `json:"status"`
	Label        string              `json:"label"`
	WithChildren []document.ID       `json:"withChildren"`
	Waitlisted   bool                `json:"waitlisted"`
}

type eventView struct {
	Event     *document.Event `json:"event"`
	Tally     rsvp.Tally      `json:"tally"`
	CanManage bool            `json:"canManage"`
	IsHost    bool            `json:"isHost"`
	Attendees []attendeeView  `json:"attendees"`
	Waitlist  []document.ID   `json:"waitlist"`
}

func (c *call) eventView(doc *document.Document, ev *document.Event, actor identity.Actor) eventView {
	guest := c.env.T("Gæst")
	view := eventView{
		Event:     events.Public(ev),
		Tally:     rsvp.Count(ev),
		Attendees: make([]attendeeView, 0, len(ev.Attendees)),
		Waitlist:  slices.Clone(ev.WaitlistQueue),
	}
	if !actor.IsZero() {
		view.CanManage = ev.IsHostOrCohost(actor.ID())
		view.IsHost = ev.IsHost(actor.ID())
	}
	if view.CanManage {
		view.Event = ev.Clone()
	}
	for id, a := range ev.Attendees {
		view.Attendees = append(view.Attendees, attendeeView{
			ID:           id,
			Name:         identity.DisplayName(doc, ev.ID, id, guest),
			Status:       a.Status,
			Label:        rsvp.Label(c.env, a.Status),
			WithChildren: a.WithChildren,
			Waitlisted:   slices.Contains(ev.WaitlistQueue, id),
		})
	}
	slices.SortFunc(view.Attendees, func(a, b attendeeView) int {
		return ev.Attendees[a.ID].At.Compare(ev.Attendees[b.ID].At)
	})
	return view
}

// HandleListEvents lists the events the session actor hosts, attends or is
// invited to.
func HandleListEvents(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		doc := c.doc()
		c.ok(http.StatusOK, events.ListFor(doc, c.actor(doc, "")))
	}
}

type createEventRequest struct {
	Settings events.Settings `json:"settings"`
	Schedule events.Schedule `json:"schedule"`
	Repeat   events.Repeat   `json:"repeat"`
}

// HandleCreateEvent creates an event or a whole series.
func HandleCreateEvent(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		body := createEventRequest{Settings: events.DefaultSettings()}
		body.Settings.Timezone = s.GetConfig().DefaultTimezone
		if !c.decode(&body) {
			return
		}
		var created []*document.Event
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, evs, err := events.Create(doc, c.env, c.actor(doc, ""), body.Settings, body.Schedule, body.Repeat)
			created = evs
			return next, err
		}) {
			return
		}
		c.ok(http.StatusCreated, created)
	}
}

// HandleGetEvent shows one event with its answers.
func HandleGetEvent(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		doc := c.doc()
		ev, actor, ok := c.viewable(doc, c.vars("id"))
		if !ok {
			return
		}
		c.ok(http.StatusOK, c.eventView(doc, ev, actor))
	}
}

type updateEventRequest struct {
	Settings      *events.Settings `json:"settings"`
	Schedule      *events.Schedule `json:"schedule"`
	ApplyToSeries bool             `json:"applyToSeries"`
}

// HandleUpdateEvent edits an event. Omitted settings keep their values.
func HandleUpdateEvent(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		id := c.vars("id")
		current, found := c.doc().Event(id)
		if !found {
			c.fail(apperr.NotFound(apperr.CodeEventNotFound, "event not found"))
			return
		}
		settings := events.SettingsOf(current)
		body := updateEventRequest{Settings: &settings}
		if !c.decode(&body) {
			return
		}
		if body.Settings == nil {
			body.Settings = &settings
		}
		var view eventView
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			actor := c.actor(doc, id)
			next, err := events.Update(doc, c.env, actor, id, *body.Settings, body.Schedule, body.ApplyToSeries)
			if err == nil {
				ev, _ := next.Event(id)
				view = c.eventView(next, ev, actor)
			}
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, view)
	}
}

// HandleDuplicateEvent copies an event without its guests.
func HandleDuplicateEvent(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var created *document.Event
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, ev, err := events.Duplicate(doc, c.env, c.actor(doc, ""), c.vars("id"))
			created = ev
			return next, err
		}) {
			return
		}
		c.ok(http.StatusCreated, created)
	}
}

// HandleToggleArchive archives or restores an event.
func HandleToggleArchive(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		id := c.vars("id")
		var archived bool
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, err := events.ToggleArchive(doc, c.env, c.actor(doc, ""), id)
			if err == nil {
				archived = next.Events[id].Archived()
			}
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, map[string]bool{"archived": archived})
	}
}

// HandleDeleteEvent removes an event and hands back an undo token.
func HandleDeleteEvent(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var cmd undo.Command
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, restore, err := events.Delete(doc, c.actor(doc, ""), c.vars("id"))
			cmd = restore
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, undoBody{Undo: c.remember(cmd)})
	}
}

type rotateResponse struct {
	Token string `json:"token"`
	Undo  string `json:"undo"`
}

// HandleRotateToken issues a fresh invite token.
func HandleRotateToken(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var (
			token string
			cmd   undo.Command
		)
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			id := c.vars("id")
			next, fresh, restore, err := events.RotateToken(doc, c.actor(doc, id), id)
			token, cmd = fresh, restore
			return next, err
		}) {
			return
		}
		c.ok(http.StatusOK, rotateResponse{Token: token, Undo: c.remember(cmd)})
	}
}

type joinRequest struct {
	Code string `json:"code"`
}

// HandleJoin resolves a pasted id, link or invite token to an event.
func HandleJoin(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body joinRequest
		if !c.decode(&body) {
			return
		}
		ev, err := events.ResolveJoinCode(c.doc(), body.Code)
		if err != nil {
			c.fail(err)
			return
		}
		c.ok(http.StatusOK, map[string]string{"eventId": ev.ID})
	}
}
