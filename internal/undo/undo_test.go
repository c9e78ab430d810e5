package undo

import (
	"testing"
	"time"

	"github.com/AlexTLDR/flok/internal/document"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRestoreEventSurvivesLaterMutations(t *testing.T) {
	doc := document.New()
	ev := &document.Event{ID: "e1", Title: "Fest", Attendees: map[document.ID]document.RSVP{"u1": {Status: document.StatusYes}}}
	cmd := RestoreEvent{Event: ev.Clone()}

	// the event is mutated after the snapshot was taken
	ev.Title = "changed"
	doc.Events["e2"] = &document.Event{ID: "e2"}

	got := cmd.Apply(doc)
	if got.Events["e1"] == nil || got.Events["e1"].Title != "Fest" {
		t.Fatalf("expected snapshot to be restored, got %+v", got.Events["e1"])
	}
	if got.Events["e2"] == nil {
		t.Errorf("expected later events to be kept")
	}
	if _, ok := doc.Events["e1"]; ok {
		t.Errorf("expected input document to stay untouched")
	}
}

func TestRestoreFriendship(t *testing.T) {
	doc := document.New()
	doc.Users["a"] = &document.User{ID: "a"}
	doc.Users["b"] = &document.User{ID: "b", FriendRequestsOutgoing: []document.ID{"a"}}
	doc.Users["a"].FriendRequestsIncoming = []document.ID{"b"}
	cmd := RestoreFriendship{Record: document.Friendship{ID: "f1", A: "a", B: "b"}}

	got := cmd.Apply(cmd.Apply(doc))
	if len(got.Friendships) != 1 {
		t.Errorf("expected one friendship record, got %d", len(got.Friendships))
	}
	a, b := got.Users["a"], got.Users["b"]
	if len(a.Friends) != 1 || len(b.Friends) != 1 {
		t.Errorf("expected symmetric friends, got %v / %v", a.Friends, b.Friends)
	}
	if len(a.FriendRequestsIncoming) != 0 || len(b.FriendRequestsOutgoing) != 0 {
		t.Errorf("expected pending requests to be cleared")
	}
}

func TestRestoreNotificationsSkipsPresent(t *testing.T) {
	doc := document.New()
	doc.Notifications = []document.Notification{{ID: "n1"}}
	cmd := RestoreNotifications{Removed: []document.Notification{{ID: "n1"}, {ID: "n2"}}}

	got := cmd.Apply(doc)
	if len(got.Notifications) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(got.Notifications))
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(10 * time.Second)
	cmd := RestoreToken{EventID: "e1", Token: "ABCDEF"}

	t.Run("single use", func(t *testing.T) {
		token := r.Put("s1", cmd, testNow)
		if _, ok := r.Take("s1", token, testNow.Add(time.Second)); !ok {
			t.Fatalf("expected command to be available")
		}
		if _, ok := r.Take("s1", token, testNow.Add(time.Second)); ok {
			t.Errorf("expected command to be consumed")
		}
	})

	t.Run("expires", func(t *testing.T) {
		token := r.Put("s1", cmd, testNow)
		if _, ok := r.Take("s1", token, testNow.Add(11*time.Second)); ok {
			t.Errorf("expected expired command to be rejected")
		}
	})

	t.Run("owner bound", func(t *testing.T) {
		token := r.Put("s1", cmd, testNow)
		if _, ok := r.Take("s2", token, testNow); ok {
			t.Errorf("expected other owner to be rejected")
		}
		if _, ok := r.Take("s1", token, testNow); !ok {
			t.Errorf("expected owner to still hold the command")
		}
	})
}
