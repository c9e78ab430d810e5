// Package events creates and manages events, their series and invite tokens.
package events

import (
	"slices"
	"strings"
	"time"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/op"
	"github.com/AlexTLDR/flok/internal/undo"
)

const (
	defaultTitle   = "Ny begivenhed"
	defaultLead    = 24 * time.Hour
	maxSeriesCount = 52
	copySuffix     = " (kopi)"
)

// Settings are the host-editable fields that a series shares.
type Settings struct {
	Title            string              `json:"title"`
	Cover            string              `json:"cover"`
	Description      string              `json:"description"`
	Address          string              `json:"address"`
	Timezone         string              `json:"timezone"`
	IsPublic         bool                `json:"isPublic"`
	Password         string              `json:"password"`
	Cohosts          []document.ID       `json:"cohosts"`
	AllowGuestPosts  bool                `json:"allowGuestPosts"`
	NotifyOnHostPost bool                `json:"notifyOnHostPost"`
	MaxGuests        int                 `json:"maxGuests"`
	Waitlist         bool                `json:"waitlist"`
	AutoPromote      bool                `json:"autoPromote"`
	Policy           document.PolicyType `json:"rsvpPolicy"`
	Deadline         *time.Time          `json:"deadline"`
}

// DefaultSettings is the starting point for a new event form.
func DefaultSettings() Settings {
	return Settings{
		Title:            defaultTitle,
		Timezone:         document.DefaultTimezone,
		IsPublic:         true,
		AllowGuestPosts:  true,
		NotifyOnHostPost: true,
		Waitlist:         true,
		Policy:           document.PolicyNone,
	}
}

// SettingsOf reads the editable settings back from ev.
func SettingsOf(ev *document.Event) Settings {
	s := Settings{
		Title:            ev.Title,
		Cover:            ev.Cover,
		Description:      ev.Description,
		Address:          ev.Address,
		Timezone:         ev.Timezone,
		IsPublic:         ev.IsPublic,
		Password:         ev.Password,
		Cohosts:          slices.Clone(ev.Cohosts),
		AllowGuestPosts:  ev.AllowGuestPosts,
		NotifyOnHostPost: ev.NotifyOnHostPost,
		MaxGuests:        ev.MaxGuests,
		Waitlist:         ev.Waitlist,
		AutoPromote:      ev.AutoPromote,
		Policy:           ev.RSVPPolicy.Type,
	}
	if ev.RSVPPolicy.Deadline != nil {
		d := *ev.RSVPPolicy.Deadline
		s.Deadline = &d
	}
	return s
}

// Schedule holds per-event times, never shared across a series.
type Schedule struct {
	Start time.Time  `json:"datetime"`
	End   *time.Time `json:"endtime"`
}

type Frequency string

const (
	RepeatNone    Frequency = "none"
	RepeatWeekly  Frequency = "weekly"
	RepeatMonthly Frequency = "monthly"
)

type Repeat struct {
	Every Frequency `json:"every"`
	Count int       `json:"count"`
}

func (s *Settings) validate(env op.Env) error {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		s.Title = env.T(defaultTitle)
	}
	if s.Timezone == "" {
		s.Timezone = document.DefaultTimezone
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return apperr.Wrap(apperr.KindValidation, apperr.CodeInvalidInput, "unknown timezone", err)
	}
	if s.MaxGuests < 0 {
		return apperr.Validation(apperr.CodeInvalidInput, "max guests cannot be negative")
	}
	if s.Policy == "" {
		s.Policy = document.PolicyNone
	}
	if !s.Policy.Valid() {
		return apperr.Validation(apperr.CodeInvalidInput, "unknown rsvp policy")
	}
	if s.Deadline == nil {
		switch s.Policy {
		case document.PolicyDeadline:
			s.Policy = document.PolicyNone
		case document.PolicyBoth:
			s.Policy = document.PolicyMax
		}
	}
	return nil
}

func (s Settings) apply(ev *document.Event) {
	ev.Title = s.Title
	ev.Cover = s.Cover
	ev.Description = s.Description
	ev.Address = s.Address
	ev.Timezone = s.Timezone
	ev.IsPublic = s.IsPublic
	ev.Password = s.Password
	ev.HasPassword = s.Password != ""
	ev.Cohosts = []document.ID{}
	for _, id := range s.Cohosts {
		if id != "" && id != ev.HostID {
			ev.Cohosts = document.AddID(ev.Cohosts, id)
		}
	}
	ev.AllowGuestPosts = s.AllowGuestPosts
	ev.NotifyOnHostPost = s.NotifyOnHostPost
	ev.MaxGuests = s.MaxGuests
	ev.Waitlist = s.Waitlist
	ev.AutoPromote = s.AutoPromote
	ev.RSVPPolicy = document.RSVPPolicy{Type: s.Policy}
	if s.Deadline != nil {
		d := *s.Deadline
		ev.RSVPPolicy.Deadline = &d
	}
}

func (sc Schedule) resolve(env op.Env) (Schedule, error) {
	if sc.Start.IsZero() {
		sc.Start = env.Now.Add(defaultLead)
	}
	if sc.End == nil {
		end := sc.Start.Add(document.DefaultDuration)
		sc.End = &end
	}
	if sc.End.Before(sc.Start) {
		return sc, apperr.Validation(apperr.CodeInvalidInput, "event cannot end before it starts")
	}
	return sc, nil
}

// Create adds one event, or a whole series when rep asks for more than one
// occurrence. Only permanent accounts may host.
func Create(doc *document.Document, env op.Env, actor identity.Actor, s Settings, sc Schedule, rep Repeat) (*document.Document, []*document.Event, error) {
	if err := actor.RequireAccount(); err != nil {
		return doc, nil, err
	}
	if err := s.validate(env); err != nil {
		return doc, nil, err
	}
	sc, err := sc.resolve(env)
	if err != nil {
		return doc, nil, err
	}

	count := 1
	if rep.Every == RepeatWeekly || rep.Every == RepeatMonthly {
		count = min(max(rep.Count, 1), maxSeriesCount)
	}
	seriesID := ""
	if count > 1 {
		seriesID = document.NewID()
	}

	loc, _ := time.LoadLocation(s.Timezone)
	duration := sc.End.Sub(sc.Start)
	next := doc.Clone()
	created := make([]*document.Event, 0, count)
	for i := range count {
		start := occurrence(sc.Start.In(loc), rep.Every, i)
		end := start.Add(duration)
		ev := &document.Event{
			ID:            document.NewID(),
			HostID:        actor.ID(),
			Start:         start,
			End:           &end,
			Attendees:     map[document.ID]document.RSVP{},
			WaitlistQueue: []document.ID{},
			Posts:         []document.Post{},
			Chat:          []document.ChatMessage{},
			TempAccounts:  map[string]document.TempLogin{},
			CreatedAt:     env.Now,
		}
		s.apply(ev)
		if seriesID != "" {
			ev.SeriesID = seriesID
			ev.SeriesIndex = i + 1
			ev.SeriesTotal = count
		}
		ev.InviteToken = next.NewInviteToken()
		next.Events[ev.ID] = ev
		created = append(created, ev)
	}
	return next, created, nil
}

// occurrence steps by calendar days or months in the event's own zone so
// wall-clock time survives daylight saving changes.
func occurrence(start time.Time, every Frequency, i int) time.Time {
	switch every {
	case RepeatWeekly:
		return start.AddDate(0, 0, 7*i)
	case RepeatMonthly:
		return start.AddDate(0, i, 0)
	default:
		return start
	}
}

// Update edits an event. With applyToSeries the shared settings also go to
// every sibling in its series; times are only ever set on the target.
func Update(doc *document.Document, env op.Env, actor identity.Actor, eventID document.ID, s Settings, sc *Schedule, applyToSeries bool) (*document.Document, error) {
	ev, ok := doc.Event(eventID)
	if !ok {
		return doc, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	if err := identity.RequireManager(ev, actor); err != nil {
		return doc, err
	}
	if err := s.validate(env); err != nil {
		return doc, err
	}

	next := doc.Clone()
	target, _ := next.Event(eventID)
	if sc != nil {
		resolved, err := sc.resolve(env)
		if err != nil {
			return doc, err
		}
		target.Start = resolved.Start
		target.End = resolved.End
	}
	s.apply(target)

	if applyToSeries && target.SeriesID != "" {
		for _, sib := range next.Series(target.SeriesID) {
			if sib.ID != target.ID {
				s.apply(sib)
			}
		}
	}
	return next, nil
}

// Duplicate copies an event without its guests, activity or series link.
func Duplicate(doc *document.Document, env op.Env, actor identity.Actor, eventID document.ID) (*document.Document, *document.Event, error) {
	src, ok := doc.Event(eventID)
	if !ok {
		return doc, nil, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	if err := identity.RequireHost(src, actor); err != nil {
		return doc, nil, err
	}

	next := doc.Clone()
	cp := src.Clone()
	cp.ID = document.NewID()
	cp.Title = src.Title + env.T(copySuffix)
	cp.Attendees = map[document.ID]document.RSVP{}
	cp.WaitlistQueue = []document.ID{}
	cp.Posts = []document.Post{}
	cp.Chat = []document.ChatMessage{}
	cp.TempAccounts = map[string]document.TempLogin{}
	cp.SeriesID, cp.SeriesIndex, cp.SeriesTotal = "", 0, 0
	cp.CreatedAt = env.Now
	cp.ArchivedAt = nil
	cp.InviteToken = next.NewInviteToken()
	next.Events[cp.ID] = cp
	return next, cp, nil
}

// ToggleArchive archives an active event or restores an archived one.
func ToggleArchive(doc *document.Document, env op.Env, actor identity.Actor, eventID document.ID) (*document.Document, error) {
	ev, ok := doc.Event(eventID)
	if !ok {
		return doc, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	if err := identity.RequireHost(ev, actor); err != nil {
		return doc, err
	}
	next := doc.Clone()
	ev, _ = next.Event(eventID)
	if ev.ArchivedAt != nil {
		ev.ArchivedAt = nil
	} else {
		now := env.Now
		ev.ArchivedAt = &now
	}
	return next, nil
}

// Delete removes an event. The command restores it exactly.
func Delete(doc *document.Document, actor identity.Actor, eventID document.ID) (*document.Document, undo.Command, error) {
	ev, ok := doc.Event(eventID)
	if !ok {
		return doc, nil, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	if err := identity.RequireHost(ev, actor); err != nil {
		return doc, nil, err
	}
	next := doc.Clone()
	delete(next.Events, eventID)
	return next, undo.RestoreEvent{Event: ev.Clone()}, nil
}

// RotateToken replaces the invite token so old codes stop working. The
// command reinstates the previous token.
func RotateToken(doc *document.Document, actor identity.Actor, eventID document.ID) (*document.Document, string, undo.Command, error) {
	ev, ok := doc.Event(eventID)
	if !ok {
		return doc, "", nil, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	if err := identity.RequireManager(ev, actor); err != nil {
		return doc, "", nil, err
	}
	next := doc.Clone()
	token := next.NewInviteToken()
	next.Events[eventID].InviteToken = token
	return next, token, undo.RestoreToken{EventID: eventID, Token: ev.InviteToken}, nil
}

// CheckPassword guards password-protected events.
func CheckPassword(ev *document.Event, password string) error {
	if !ev.HasPassword || ev.Password == password {
		return nil
	}
	return apperr.Validation(apperr.CodeWrongPassword, "wrong event password")
}

// Public returns a copy of ev safe to show a viewer: no password and no
// temporary login PINs.
func Public(ev *document.Event) *document.Event {
	cp := ev.Clone()
	cp.Password = ""
	for name, t := range cp.TempAccounts {
		t.PIN = ""
		cp.TempAccounts[name] = t
	}
	return cp
}

// Overview groups the events an actor is involved in.
type Overview struct {
	Hosting   []*document.Event `json:"hosting"`
	Attending []*document.Event `json:"attending"`
	Invited   []*document.Event `json:"invited"`
	Archived  []*document.Event `json:"archived"`
}

// ListFor collects actor's events, each ordered by start.
func ListFor(doc *document.Document, actor identity.Actor) Overview {
	o := Overview{
		Hosting:   []*document.Event{},
		Attending: []*document.Event{},
		Invited:   []*document.Event{},
		Archived:  []*document.Event{},
	}
	if actor.IsZero() {
		return o
	}
	id := actor.ID()
	for _, ev := range doc.Events {
		var bucket *[]*document.Event
		switch {
		case ev.IsHostOrCohost(id):
			bucket = &o.Hosting
		case hasAnswer(ev, id):
			bucket = &o.Attending
		case hasLiveInvite(doc, ev.ID, id):
			bucket = &o.Invited
		default:
			continue
		}
		if ev.Archived() {
			bucket = &o.Archived
		}
		*bucket = append(*bucket, Public(ev))
	}
	for _, list := range []*[]*document.Event{&o.Hosting, &o.Attending, &o.Invited, &o.Archived} {
		slices.SortFunc(*list, func(a, b *document.Event) int { return a.Start.Compare(b.Start) })
	}
	return o
}

func hasAnswer(ev *document.Event, id document.ID) bool {
	r, ok := ev.Attendees[id]
	return ok && r.Status != document.StatusNo
}

func hasLiveInvite(doc *document.Document, eventID, id document.ID) bool {
	return slices.ContainsFunc(doc.Invites, func(iv document.Invite) bool {
		return iv.EventID == eventID && iv.To == id && iv.Status == document.InvitePending
	})
}
