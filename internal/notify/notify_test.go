package notify

import (
	"testing"
	"time"

	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/op"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingAlerter struct {
	got []document.Notification
}

func (r *recordingAlerter) Alert(n document.Notification) {
	r.got = append(r.got, n)
}

func seed() *document.Document {
	doc := document.New()
	Push(doc, op.At(testNow), "u1", TypeRSVP, document.ImportanceHigh, "old")
	Push(doc, op.At(testNow.Add(time.Minute)), "u1", TypeLike, document.ImportanceLow, "like")
	Push(doc, op.At(testNow.Add(2*time.Minute)), "u1", TypeFriend, document.ImportanceHigh, "new")
	Push(doc, op.At(testNow), "u2", TypeRSVP, document.ImportanceHigh, "other")
	return doc
}

func TestForOwner(t *testing.T) {
	inbox := ForOwner(seed(), "u1")

	if len(inbox.High) != 2 || len(inbox.Low) != 1 {
		t.Fatalf("expected 2 high and 1 low, got %d and %d", len(inbox.High), len(inbox.Low))
	}
	if inbox.High[0].Text != "new" {
		t.Errorf("expected newest first, got %q", inbox.High[0].Text)
	}
	if inbox.Unread != 3 {
		t.Errorf("expected 3 unread, got %d", inbox.Unread)
	}
}

func TestMarkAllReadOnlyTouchesOwner(t *testing.T) {
	doc := seed()
	next := MarkAllRead(doc, "u1")

	for _, n := range next.Notifications {
		if want := n.Owner == "u1"; n.Read != want {
			t.Errorf("notification %q: read = %v, want %v", n.Text, n.Read, want)
		}
	}
	if doc.Notifications[0].Read {
		t.Errorf("expected input document to stay untouched")
	}
}

func TestClearAndUndo(t *testing.T) {
	doc := seed()
	cleared, cmd := Clear(doc, "u1")

	if len(cleared.Notifications) != 1 || cleared.Notifications[0].Owner != "u2" {
		t.Fatalf("expected only u2's notification to remain, got %+v", cleared.Notifications)
	}

	restored := cmd.Apply(cleared)
	if got := ForOwner(restored, "u1"); len(got.High)+len(got.Low) != 3 {
		t.Errorf("expected 3 notifications back, got %+v", got)
	}
}

func TestDispatchAlertsOnNewHighOnly(t *testing.T) {
	before := seed()
	after := before.Clone()
	Push(after, op.At(testNow), "u1", TypeRSVP, document.ImportanceHigh, "fresh")
	Push(after, op.At(testNow), "u1", TypeChat, document.ImportanceLow, "chatter")

	a := &recordingAlerter{}
	Dispatch(a, before, after)

	if len(a.got) != 1 || a.got[0].Text != "fresh" {
		t.Errorf("expected one alert for the fresh notification, got %+v", a.got)
	}
}
