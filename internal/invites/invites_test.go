package invites

import (
	"testing"
	"time"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/op"
)

var env = op.At(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

var host = identity.Account("host")

func setupDoc() *document.Document {
	doc := document.New()
	for _, id := range []document.ID{"host", "a", "b"} {
		doc.Users[id] = &document.User{ID: id, Name: id}
	}
	doc.Events["e1"] = &document.Event{
		ID:        "e1",
		Title:     "Sankthans",
		HostID:    "host",
		Attendees: map[document.ID]document.RSVP{},
	}
	return doc
}

func TestSend(t *testing.T) {
	doc, created, err := Send(setupDoc(), env, "e1", host, []document.ID{"a", "b", "a", "host", "ghost"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 invites, got %d", len(created))
	}
	for _, iv := range created {
		if iv.Status != document.InvitePending || iv.From != "host" {
			t.Errorf("unexpected invite %+v", iv)
		}
	}

	var recipients []document.ID
	for _, n := range doc.Notifications {
		if n.Type == "invite" {
			recipients = append(recipients, n.Owner)
		}
	}
	if len(recipients) != 2 {
		t.Errorf("expected a notification per recipient, got %v", recipients)
	}
}

func TestSendSkipsLiveInvites(t *testing.T) {
	tests := []struct {
		name     string
		existing document.InviteStatus
		want     int
	}{
		{name: "pending", existing: document.InvitePending, want: 0},
		{name: "accepted", existing: document.InviteAccepted, want: 0},
		{name: "declined", existing: document.InviteDeclined, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := setupDoc()
			doc.Invites = append(doc.Invites, document.Invite{ID: "old", EventID: "e1", From: "host", To: "a", Status: tt.existing})

			next, created, err := Send(doc, env, "e1", host, []document.ID{"a"})
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if len(created) != tt.want {
				t.Errorf("expected %d new invites, got %d", tt.want, len(created))
			}
			if tt.want == 0 && next != doc {
				t.Errorf("expected unchanged document")
			}
		})
	}
}

func TestSendWithoutInviteFreeRecipient(t *testing.T) {
	_, created, _ := Send(setupDoc(), env, "e1", host, []document.ID{"b"})
	if len(created) != 1 {
		t.Errorf("expected exactly one invite, got %d", len(created))
	}
}

func TestSendRequiresVisibility(t *testing.T) {
	_, _, err := Send(setupDoc(), env, "e1", identity.Account("a"), []document.ID{"b"})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("expected forbidden for private event outsider, got %v", err)
	}
}

func TestAccept(t *testing.T) {
	doc, created, _ := Send(setupDoc(), env, "e1", host, []document.ID{"a", "b"})
	doc.Events["e1"].Attendees["b"] = document.RSVP{Status: document.StatusYes, By: "b"}

	t.Run("creates maybe", func(t *testing.T) {
		next, err := Accept(doc, env, created[0].ID, identity.Account("a"))
		if err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		if next.Invites[next.InviteIndex(created[0].ID)].Status != document.InviteAccepted {
			t.Errorf("expected accepted status")
		}
		if got := next.Events["e1"].Attendees["a"].Status; got != document.StatusMaybe {
			t.Errorf("expected maybe, got %s", got)
		}
	})

	t.Run("never downgrades yes", func(t *testing.T) {
		next, err := Accept(doc, env, created[1].ID, identity.Account("b"))
		if err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		if got := next.Events["e1"].Attendees["b"].Status; got != document.StatusYes {
			t.Errorf("expected yes to stay, got %s", got)
		}
	})

	t.Run("only the recipient", func(t *testing.T) {
		_, err := Accept(doc, env, created[0].ID, identity.Account("b"))
		if apperr.KindOf(err) != apperr.KindForbidden {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("missing event", func(t *testing.T) {
		gone := doc.Clone()
		delete(gone.Events, "e1")
		next, err := Accept(gone, env, created[0].ID, identity.Account("a"))
		if err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		if next.Invites[next.InviteIndex(created[0].ID)].Status != document.InviteAccepted {
			t.Errorf("expected invite to be accepted anyway")
		}
	})
}

func TestDecline(t *testing.T) {
	doc, created, _ := Send(setupDoc(), env, "e1", host, []document.ID{"a"})
	doc.Events["e1"].Attendees["a"] = document.RSVP{Status: document.StatusMaybe, By: "a"}

	next, err := Decline(doc, created[0].ID, identity.Account("a"))
	if err != nil {
		t.Fatalf("Decline() error = %v", err)
	}
	if next.Invites[0].Status != document.InviteDeclined {
		t.Errorf("expected declined")
	}
	if _, ok := next.Events["e1"].Attendees["a"]; !ok {
		t.Errorf("expected attendance to stay")
	}
	if IsAlreadyInvited(next, "e1", "a") {
		t.Errorf("expected declined invite not to count")
	}
	if _, err := Decline(doc, "nope", identity.Account("a")); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}
