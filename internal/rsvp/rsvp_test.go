package rsvp

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/op"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupEvent(mutate func(ev *document.Event)) *document.Document {
	doc := document.New()
	for _, id := range []document.ID{"host", "a", "b", "c"} {
		doc.Users[id] = &document.User{ID: id, Name: "User " + id}
	}
	ev := &document.Event{
		ID:            "e1",
		Title:         "Havefest",
		HostID:        "host",
		Start:         testNow.Add(7 * 24 * time.Hour),
		RSVPPolicy:    document.RSVPPolicy{Type: document.PolicyNone},
		Attendees:     map[document.ID]document.RSVP{},
		WaitlistQueue: []document.ID{},
	}
	if mutate != nil {
		mutate(ev)
	}
	doc.Events[ev.ID] = ev
	return doc
}

func respond(t *testing.T, doc *document.Document, id document.ID, status document.RSVPStatus) (*document.Document, Result) {
	t.Helper()
	next, res, err := Respond(doc, op.At(testNow), "e1", identity.Account(id), status, nil)
	if err != nil {
		t.Fatalf("Respond(%s, %s) error = %v", id, status, err)
	}
	return next, res
}

func TestWaitlistAndAutoPromote(t *testing.T) {
	doc := setupEvent(func(ev *document.Event) {
		ev.MaxGuests = 2
		ev.Waitlist = true
		ev.AutoPromote = true
		ev.RSVPPolicy.Type = document.PolicyMax
	})

	doc, _ = respond(t, doc, "a", document.StatusYes)
	doc, _ = respond(t, doc, "b", document.StatusYes)
	doc, res := respond(t, doc, "c", document.StatusYes)

	ev := doc.Events["e1"]
	if ev.Attendees["a"].Status != document.StatusYes || ev.Attendees["b"].Status != document.StatusYes {
		t.Fatalf("expected first two to be yes, got %+v", ev.Attendees)
	}
	if res.Status != document.StatusMaybe || !res.Waitlisted {
		t.Errorf("expected third to be waitlisted as maybe, got %+v", res)
	}
	if ev.Attendees["c"].Status != document.StatusMaybe {
		t.Errorf("expected stored maybe, got %s", ev.Attendees["c"].Status)
	}
	if slices.Index(ev.WaitlistQueue, "c") != 0 {
		t.Errorf("expected c at queue position 0, got %v", ev.WaitlistQueue)
	}

	doc, res = respond(t, doc, "a", document.StatusNo)
	ev = doc.Events["e1"]
	if ev.Attendees["c"].Status != document.StatusYes {
		t.Errorf("expected c to be promoted, got %s", ev.Attendees["c"].Status)
	}
	if len(ev.WaitlistQueue) != 0 {
		t.Errorf("expected empty queue, got %v", ev.WaitlistQueue)
	}
	if !slices.Equal(res.Promoted, []document.ID{"c"}) {
		t.Errorf("expected promoted [c], got %v", res.Promoted)
	}
}

func TestDeadlineGate(t *testing.T) {
	deadline := testNow.Add(-time.Hour)

	tests := []struct {
		name    string
		policy  document.PolicyType
		wantErr bool
	}{
		{name: "deadline", policy: document.PolicyDeadline, wantErr: true},
		{name: "both", policy: document.PolicyBoth, wantErr: true},
		{name: "max ignores deadline", policy: document.PolicyMax, wantErr: false},
		{name: "none ignores deadline", policy: document.PolicyNone, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := setupEvent(func(ev *document.Event) {
				ev.RSVPPolicy = document.RSVPPolicy{Type: tt.policy, Deadline: &deadline}
			})
			next, _, err := Respond(doc, op.At(testNow), "e1", identity.Account("a"), document.StatusYes, nil)

			if tt.wantErr {
				if !errors.Is(err, apperr.Policy(apperr.CodeRSVPDeadline, "")) {
					t.Fatalf("expected deadline policy error, got %v", err)
				}
				if next != doc || len(doc.Events["e1"].Attendees) != 0 {
					t.Errorf("expected attendee map to stay unchanged")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCapacityGate(t *testing.T) {
	doc := setupEvent(func(ev *document.Event) {
		ev.MaxGuests = 1
		ev.RSVPPolicy.Type = document.PolicyBoth
	})
	doc, _ = respond(t, doc, "a", document.StatusYes)

	_, _, err := Respond(doc, op.At(testNow), "e1", identity.Account("b"), document.StatusYes, nil)
	if apperr.KindOf(err) != apperr.KindPolicy {
		t.Fatalf("expected policy error when full, got %v", err)
	}

	_, res := respond(t, doc, "b", document.StatusMaybe)
	if res.Status != document.StatusMaybe {
		t.Errorf("expected maybe to be accepted while full, got %s", res.Status)
	}
}

func TestRepeatedYesOnFullEvent(t *testing.T) {
	tests := []struct {
		name       string
		policy     document.PolicyType
		waitlist   bool
		wantErr    bool
		wantStatus document.RSVPStatus
	}{
		{name: "max without waitlist", policy: document.PolicyMax, wantErr: true},
		{name: "both without waitlist", policy: document.PolicyBoth, wantErr: true},
		{name: "max with waitlist", policy: document.PolicyMax, waitlist: true, wantStatus: document.StatusMaybe},
		{name: "no policy", policy: document.PolicyNone, wantStatus: document.StatusYes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := setupEvent(func(ev *document.Event) {
				ev.MaxGuests = 1
				ev.Waitlist = tt.waitlist
				ev.RSVPPolicy.Type = tt.policy
				ev.Attendees["a"] = document.RSVP{Status: document.StatusYes, By: "a", At: testNow, WithChildren: []document.ID{}}
			})

			next, res, err := Respond(doc, op.At(testNow), "e1", identity.Account("a"), document.StatusYes, nil)
			if tt.wantErr {
				if !errors.Is(err, apperr.Policy(apperr.CodeRSVPCapacity, "")) {
					t.Fatalf("expected capacity policy error, got %v", err)
				}
				if next != doc || doc.Events["e1"].Attendees["a"].Status != document.StatusYes {
					t.Errorf("expected attendee map to stay unchanged")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("expected %s, got %s", tt.wantStatus, res.Status)
			}
		})
	}
}

func TestWaitlistWithoutAutoPromote(t *testing.T) {
	doc := setupEvent(func(ev *document.Event) {
		ev.MaxGuests = 1
		ev.Waitlist = true
		ev.RSVPPolicy.Type = document.PolicyMax
	})
	doc, _ = respond(t, doc, "a", document.StatusYes)
	doc, _ = respond(t, doc, "b", document.StatusYes)
	doc, _ = respond(t, doc, "a", document.StatusNo)

	ev := doc.Events["e1"]
	if ev.Attendees["b"].Status != document.StatusMaybe || !slices.Contains(ev.WaitlistQueue, "b") {
		t.Errorf("expected b to stay waitlisted, got %+v queue %v", ev.Attendees["b"], ev.WaitlistQueue)
	}

	doc, _ = respond(t, doc, "b", document.StatusNo)
	if slices.Contains(doc.Events["e1"].WaitlistQueue, "b") {
		t.Errorf("expected answering no to leave the queue")
	}
}

func TestRespondChildren(t *testing.T) {
	doc := setupEvent(nil)
	doc.Users["a"].IsParent = true
	doc.Users["a"].Children = []document.Child{{ID: "k1", Name: "Ida", Age: 4}, {ID: "k2", Name: "Oskar", Age: 7}}

	next, _, err := Respond(doc, op.At(testNow), "e1", identity.Account("a"), document.StatusYes, []document.ID{"k2", "stranger", "k2"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if got := next.Events["e1"].Attendees["a"].WithChildren; !slices.Equal(got, []document.ID{"k2"}) {
		t.Errorf("expected only own children, got %v", got)
	}

	next, _, _ = Respond(next, op.At(testNow), "e1", identity.Account("a"), document.StatusYes, nil)
	if got := next.Events["e1"].Attendees["a"].WithChildren; len(got) != 0 {
		t.Errorf("expected children to be replaced, got %v", got)
	}
}

func TestRespondFailures(t *testing.T) {
	doc := setupEvent(nil)

	tests := []struct {
		name    string
		eventID document.ID
		actor   identity.Actor
		status  document.RSVPStatus
		kind    apperr.Kind
	}{
		{name: "missing event", eventID: "nope", actor: identity.Account("a"), status: document.StatusYes, kind: apperr.KindNotFound},
		{name: "no actor", eventID: "e1", actor: identity.Actor{}, status: document.StatusYes, kind: apperr.KindUnauthenticated},
		{name: "bad status", eventID: "e1", actor: identity.Account("a"), status: "perhaps", kind: apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _, err := Respond(doc, op.At(testNow), tt.eventID, tt.actor, tt.status, nil)
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("expected %s error, got %v", tt.kind, err)
			}
			if next != doc {
				t.Errorf("expected the input document back")
			}
		})
	}
}

func TestRespondNotifiesHost(t *testing.T) {
	doc := setupEvent(nil)
	doc, _ = respond(t, doc, "a", document.StatusMaybe)

	n := doc.Notifications[len(doc.Notifications)-1]
	if n.Owner != "host" || n.Type != "rsvp" || n.Importance != document.ImportanceHigh {
		t.Errorf("unexpected notification %+v", n)
	}
	if n.Text != "User a svarede Måske" {
		t.Errorf("unexpected text %q", n.Text)
	}
}

func TestTemporaryActorResponds(t *testing.T) {
	doc := setupEvent(func(ev *document.Event) {
		ev.TempAccounts = map[string]document.TempLogin{"mormor": {PIN: "1234", UserID: "tmp"}}
	})
	doc.Users["tmp"] = &document.User{ID: "tmp"}

	next, _, err := Respond(doc, op.At(testNow), "e1", identity.Temporary("e1", "mormor", "tmp"), document.StatusYes, nil)
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if next.Events["e1"].Attendees["tmp"].Status != document.StatusYes {
		t.Errorf("expected temporary actor to be recorded")
	}
	if got := next.Notifications[0].Text; got != "mormor svarede Deltager" {
		t.Errorf("expected username in notification, got %q", got)
	}
}

func TestPromoteFromWaitlist(t *testing.T) {
	base := setupEvent(func(ev *document.Event) {
		ev.MaxGuests = 1
		ev.Waitlist = true
		ev.RSVPPolicy.Type = document.PolicyMax
		ev.Cohosts = []document.ID{"b"}
	})
	base, _ = respond(t, base, "a", document.StatusYes)
	base, _ = respond(t, base, "c", document.StatusYes)

	t.Run("forbidden for guests", func(t *testing.T) {
		_, err := PromoteFromWaitlist(base, op.At(testNow), "e1", identity.Account("a"), "c")
		if apperr.KindOf(err) != apperr.KindForbidden {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("no capacity", func(t *testing.T) {
		_, err := PromoteFromWaitlist(base, op.At(testNow), "e1", identity.Account("host"), "c")
		if apperr.KindOf(err) != apperr.KindPolicy {
			t.Errorf("expected policy error, got %v", err)
		}
	})

	t.Run("cohost promotes after a place frees", func(t *testing.T) {
		doc, _ := respond(t, base, "a", document.StatusNo)
		doc, err := PromoteFromWaitlist(doc, op.At(testNow), "e1", identity.Account("b"), "c")
		if err != nil {
			t.Fatalf("PromoteFromWaitlist() error = %v", err)
		}
		ev := doc.Events["e1"]
		if ev.Attendees["c"].Status != document.StatusYes || len(ev.WaitlistQueue) != 0 {
			t.Errorf("expected c promoted and queue empty, got %+v %v", ev.Attendees["c"], ev.WaitlistQueue)
		}
	})
}

func TestCount(t *testing.T) {
	ev := &document.Event{
		MaxGuests: 3,
		Attendees: map[document.ID]document.RSVP{
			"a": {Status: document.StatusYes, WithChildren: []document.ID{"k1", "k2"}},
			"b": {Status: document.StatusNo},
			"c": {Status: document.StatusMaybe},
		},
		WaitlistQueue: []document.ID{"c"},
	}
	want := Tally{Yes: 1, No: 1, Maybe: 1, Children: 2, Waiting: 1, Free: 2}
	if got := Count(ev); got != want {
		t.Errorf("Count() = %+v, want %+v", got, want)
	}
}
