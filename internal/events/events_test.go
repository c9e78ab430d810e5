package events

import (
	"strings"
	"testing"
	"time"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/op"
)

var (
	testNow = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	env     = op.At(testNow)
	host    = identity.Account("host")
)

func setupDoc() *document.Document {
	doc := document.New()
	doc.Users["host"] = &document.User{ID: "host", Name: "Hanne"}
	doc.Users["co"] = &document.User{ID: "co", Name: "Carl"}
	return doc
}

func createOne(t *testing.T, doc *document.Document, s Settings) (*document.Document, *document.Event) {
	t.Helper()
	next, created, err := Create(doc, env, host, s, Schedule{}, Repeat{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return next, created[0]
}

func TestCreateDefaults(t *testing.T) {
	s := DefaultSettings()
	s.Title = "  "
	s.Password = "hemmelig"
	doc, ev := createOne(t, setupDoc(), s)

	if ev.Title != "Ny begivenhed" {
		t.Errorf("expected default title, got %q", ev.Title)
	}
	if !ev.Start.Equal(testNow.Add(24 * time.Hour)) {
		t.Errorf("expected start one day ahead, got %v", ev.Start)
	}
	if !ev.EndOrDefault().Equal(ev.Start.Add(2 * time.Hour)) {
		t.Errorf("expected two hour default, got %v", ev.End)
	}
	if !ev.HasPassword || !ev.IsPublic || !ev.Waitlist || ev.RSVPPolicy.Type != document.PolicyNone {
		t.Errorf("unexpected defaults %+v", ev)
	}
	if len(ev.InviteToken) != 6 {
		t.Errorf("expected a 6 character token, got %q", ev.InviteToken)
	}
	if ev.SeriesID != "" {
		t.Errorf("expected a single event without series, got %q", ev.SeriesID)
	}
	if len(doc.Events) != 1 {
		t.Errorf("expected one stored event, got %d", len(doc.Events))
	}
}

func TestCreateRejects(t *testing.T) {
	end := testNow
	tests := []struct {
		name  string
		actor identity.Actor
		s     func() Settings
		sc    Schedule
		kind  apperr.Kind
	}{
		{
			name:  "temporary actor",
			actor: identity.Temporary("e1", "gæst", "tmp"),
			s:     DefaultSettings,
			kind:  apperr.KindUnauthenticated,
		},
		{
			name:  "unknown timezone",
			actor: host,
			s: func() Settings {
				s := DefaultSettings()
				s.Timezone = "Mars/Olympus"
				return s
			},
			kind: apperr.KindValidation,
		},
		{
			name:  "end before start",
			actor: host,
			s:     DefaultSettings,
			sc:    Schedule{Start: testNow.Add(time.Hour), End: &end},
			kind:  apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := setupDoc()
			next, _, err := Create(doc, env, tt.actor, tt.s(), tt.sc, Repeat{})
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("expected %s error, got %v", tt.kind, err)
			}
			if next != doc {
				t.Errorf("expected the input document back")
			}
		})
	}
}

func TestCreateSeries(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}
	// Two weekly occurrences straddle the switch to summer time.
	start := time.Date(2025, 3, 24, 18, 0, 0, 0, loc)

	doc, created, err := Create(setupDoc(), env, host, DefaultSettings(), Schedule{Start: start}, Repeat{Every: RepeatWeekly, Count: 3})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("expected 3 events, got %d", len(created))
	}

	tokens := map[string]bool{}
	for i, ev := range created {
		if ev.SeriesID == "" || ev.SeriesID != created[0].SeriesID {
			t.Errorf("event %d: expected shared series id", i)
		}
		if ev.SeriesIndex != i+1 || ev.SeriesTotal != 3 {
			t.Errorf("event %d: expected index %d of 3, got %d of %d", i, i+1, ev.SeriesIndex, ev.SeriesTotal)
		}
		if h := ev.Start.In(loc).Hour(); h != 18 {
			t.Errorf("event %d: expected 18:00 local, got %d", i, h)
		}
		tokens[ev.InviteToken] = true
	}
	if len(tokens) != 3 {
		t.Errorf("expected unique tokens, got %v", tokens)
	}
	if got := doc.Series(created[0].SeriesID); len(got) != 3 || got[2].ID != created[2].ID {
		t.Errorf("expected series ordered by start")
	}

	monthly, _, _ := Create(setupDoc(), env, host, DefaultSettings(), Schedule{Start: start}, Repeat{Every: RepeatMonthly, Count: 2})
	for _, ev := range monthly.Events {
		if ev.SeriesIndex == 2 && ev.Start.In(loc).Month() != time.April {
			t.Errorf("expected second monthly event in April, got %v", ev.Start)
		}
	}
}

func TestUpdateSeriesFanOut(t *testing.T) {
	doc, created, _ := Create(setupDoc(), env, host, DefaultSettings(), Schedule{}, Repeat{Every: RepeatWeekly, Count: 2})
	first, second := created[0], created[1]

	s := DefaultSettings()
	s.Title = "Fredagsbar"
	s.Cohosts = []document.ID{"co", "host", "co"}
	newStart := testNow.Add(72 * time.Hour)

	t.Run("only target", func(t *testing.T) {
		next, err := Update(doc, env, host, first.ID, s, &Schedule{Start: newStart}, false)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if next.Events[first.ID].Title != "Fredagsbar" || next.Events[second.ID].Title == "Fredagsbar" {
			t.Errorf("expected only the target to change")
		}
		if got := next.Events[first.ID].Cohosts; len(got) != 1 || got[0] != "co" {
			t.Errorf("expected cohosts deduplicated without host, got %v", got)
		}
	})

	t.Run("whole series keeps sibling times", func(t *testing.T) {
		next, err := Update(doc, env, host, first.ID, s, &Schedule{Start: newStart}, true)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		sib := next.Events[second.ID]
		if sib.Title != "Fredagsbar" {
			t.Errorf("expected sibling title to follow, got %q", sib.Title)
		}
		if !sib.Start.Equal(second.Start) {
			t.Errorf("expected sibling start to stay %v, got %v", second.Start, sib.Start)
		}
		if !next.Events[first.ID].Start.Equal(newStart) {
			t.Errorf("expected target start to move")
		}
	})

	t.Run("cohost may edit", func(t *testing.T) {
		withCo, _ := Update(doc, env, host, first.ID, s, nil, false)
		if _, err := Update(withCo, env, identity.Account("co"), first.ID, s, nil, false); err != nil {
			t.Errorf("unexpected error for cohost: %v", err)
		}
		if _, err := Update(doc, env, identity.Account("co"), first.ID, s, nil, false); apperr.KindOf(err) != apperr.KindForbidden {
			t.Errorf("expected forbidden before being cohost, got %v", err)
		}
	})
}

func TestSettingsOfRoundTrips(t *testing.T) {
	deadline := testNow.Add(48 * time.Hour)
	s := DefaultSettings()
	s.Title = "Sommerfest"
	s.MaxGuests = 12
	s.Policy = document.PolicyBoth
	s.Deadline = &deadline
	s.Cohosts = []document.ID{"co"}
	doc, ev := createOne(t, setupDoc(), s)

	got := SettingsOf(doc.Events[ev.ID])
	if got.Title != "Sommerfest" || got.MaxGuests != 12 || got.Policy != document.PolicyBoth {
		t.Errorf("unexpected settings %+v", got)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("expected deadline %v, got %v", deadline, got.Deadline)
	}

	next, err := Update(doc, env, host, ev.ID, got, nil, false)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if next.Events[ev.ID].RSVPPolicy.Type != document.PolicyBoth || len(next.Events[ev.ID].Cohosts) != 1 {
		t.Errorf("expected re-applying settings to keep the event unchanged")
	}
}

func TestDuplicate(t *testing.T) {
	doc, ev := createOne(t, setupDoc(), DefaultSettings())
	doc.Events[ev.ID].Attendees["x"] = document.RSVP{Status: document.StatusYes}
	doc.Events[ev.ID].Posts = append(doc.Events[ev.ID].Posts, document.Post{ID: "p1"})
	doc.Events[ev.ID].WaitlistQueue = []document.ID{"y"}

	next, cp, err := Duplicate(doc, env, host, ev.ID)
	if err != nil {
		t.Fatalf("Duplicate() error = %v", err)
	}
	if cp.ID == ev.ID || cp.InviteToken == ev.InviteToken {
		t.Errorf("expected fresh id and token")
	}
	if cp.Title != ev.Title+" (kopi)" {
		t.Errorf("unexpected title %q", cp.Title)
	}
	if len(cp.Attendees) != 0 || len(cp.Posts) != 0 || len(cp.WaitlistQueue) != 0 || cp.ArchivedAt != nil {
		t.Errorf("expected cleared copy, got %+v", cp)
	}
	if len(next.Events[ev.ID].Attendees) != 1 {
		t.Errorf("expected the original to keep its guests")
	}
	if _, _, err := Duplicate(doc, env, identity.Account("co"), ev.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("expected forbidden for non-host, got %v", err)
	}
}

func TestToggleArchive(t *testing.T) {
	doc, ev := createOne(t, setupDoc(), DefaultSettings())

	doc, err := ToggleArchive(doc, env, host, ev.ID)
	if err != nil || doc.Events[ev.ID].ArchivedAt == nil {
		t.Fatalf("expected event archived, err = %v", err)
	}
	doc, _ = ToggleArchive(doc, env, host, ev.ID)
	if doc.Events[ev.ID].ArchivedAt != nil {
		t.Errorf("expected event restored")
	}
}

func TestDeleteAndUndo(t *testing.T) {
	doc, ev := createOne(t, setupDoc(), DefaultSettings())
	doc.Events[ev.ID].Attendees["x"] = document.RSVP{Status: document.StatusYes}

	next, cmd, err := Delete(doc, host, ev.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := next.Events[ev.ID]; ok {
		t.Fatalf("expected event to be gone")
	}

	restored := cmd.Apply(next)
	if got := restored.Events[ev.ID]; got == nil || got.Attendees["x"].Status != document.StatusYes {
		t.Errorf("expected exact event back, got %+v", got)
	}
}

func TestRotateTokenAndUndo(t *testing.T) {
	doc, ev := createOne(t, setupDoc(), DefaultSettings())
	old := ev.InviteToken

	next, token, cmd, err := RotateToken(doc, host, ev.ID)
	if err != nil {
		t.Fatalf("RotateToken() error = %v", err)
	}
	if token == old || next.Events[ev.ID].InviteToken != token {
		t.Errorf("expected a new token")
	}
	if _, err := ResolveJoinCode(next, old); err == nil {
		t.Errorf("expected the old token to stop working")
	}
	if got := cmd.Apply(next).Events[ev.ID].InviteToken; got != old {
		t.Errorf("expected undo to restore %q, got %q", old, got)
	}
}

func TestResolveJoinCode(t *testing.T) {
	doc, ev := createOne(t, setupDoc(), DefaultSettings())

	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{name: "raw id", code: ev.ID, ok: true},
		{name: "fragment text", code: "se her #event:" + ev.ID, ok: true},
		{name: "url fragment", code: "https://flok.app/#event:" + ev.ID, ok: true},
		{name: "url query", code: "https://flok.app/?event=" + ev.ID, ok: true},
		{name: "partial query", code: "flok.app/?lang=da&event=" + ev.ID, ok: true},
		{name: "token", code: ev.InviteToken, ok: true},
		{name: "lower case token", code: " " + strings.ToLower(ev.InviteToken) + " ", ok: true},
		{name: "unknown", code: "NOPE99", ok: false},
		{name: "empty", code: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveJoinCode(doc, tt.code)
			if !tt.ok {
				if err == nil {
					t.Errorf("expected no match for %q", tt.code)
				}
				return
			}
			if err != nil || got.ID != ev.ID {
				t.Errorf("ResolveJoinCode(%q) = %v, %v", tt.code, got, err)
			}
		})
	}
}

func TestCheckPasswordAndPublic(t *testing.T) {
	ev := &document.Event{
		HasPassword:  true,
		Password:     "kage",
		TempAccounts: map[string]document.TempLogin{"mormor": {PIN: "1234"}},
	}
	if err := CheckPassword(ev, "kage"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckPassword(ev, "is"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}

	pub := Public(ev)
	if pub.Password != "" || pub.TempAccounts["mormor"].PIN != "" {
		t.Errorf("expected secrets to be stripped, got %+v", pub)
	}
	if ev.Password != "kage" {
		t.Errorf("expected original to be untouched")
	}
}

func TestListFor(t *testing.T) {
	doc, ev := createOne(t, setupDoc(), DefaultSettings())
	doc, other, _ := Create(doc, env, identity.Account("co"), DefaultSettings(), Schedule{}, Repeat{})
	doc.Events[other[0].ID].Attendees["host"] = document.RSVP{Status: document.StatusMaybe}

	o := ListFor(doc, host)
	if len(o.Hosting) != 1 || o.Hosting[0].ID != ev.ID {
		t.Errorf("expected one hosted event, got %+v", o.Hosting)
	}
	if len(o.Attending) != 1 || o.Attending[0].ID != other[0].ID {
		t.Errorf("expected one attended event, got %+v", o.Attending)
	}
}
