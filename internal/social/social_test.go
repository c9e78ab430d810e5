package social

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/op"
)

var env = op.At(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

func setupUsers(ids ...document.ID) *document.Document {
	doc := document.New()
	for _, id := range ids {
		doc.Users[id] = &document.User{
			ID:                     id,
			Name:                   string(id),
			Friends:                []document.ID{},
			FriendRequestsIncoming: []document.ID{},
			FriendRequestsOutgoing: []document.ID{},
		}
	}
	return doc
}

func TestRequestLifecycle(t *testing.T) {
	a, b := identity.Account("a"), identity.Account("b")

	t.Run("send then accept", func(t *testing.T) {
		doc, err := SendRequest(setupUsers("a", "b"), env, a, "b")
		if err != nil {
			t.Fatalf("SendRequest() error = %v", err)
		}
		if got := StatusOf(doc, "a", "b"); got != StatusOutgoing {
			t.Errorf("expected outgoing, got %s", got)
		}
		if got := StatusOf(doc, "b", "a"); got != StatusIncoming {
			t.Errorf("expected incoming, got %s", got)
		}

		doc, err = Accept(doc, env, b, "a")
		if err != nil {
			t.Fatalf("Accept() error = %v", err)
		}
		if StatusOf(doc, "a", "b") != StatusFriends || StatusOf(doc, "b", "a") != StatusFriends {
			t.Errorf("expected symmetric friendship")
		}
		if len(doc.Friendships) != 1 {
			t.Errorf("expected one friendship record, got %d", len(doc.Friendships))
		}
		last := doc.Notifications[len(doc.Notifications)-1]
		if last.Type != "friend" || last.Importance != document.ImportanceHigh || last.Owner != "b" {
			t.Errorf("unexpected notification %+v", last)
		}
	})

	t.Run("crossing requests become friends", func(t *testing.T) {
		doc, _ := SendRequest(setupUsers("a", "b"), env, a, "b")
		doc, err := SendRequest(doc, env, b, "a")
		if err != nil {
			t.Fatalf("SendRequest() error = %v", err)
		}
		if StatusOf(doc, "a", "b") != StatusFriends {
			t.Errorf("expected implicit accept")
		}
	})

	t.Run("repeat send is a no-op", func(t *testing.T) {
		doc, _ := SendRequest(setupUsers("a", "b"), env, a, "b")
		again, err := SendRequest(doc, env, a, "b")
		if err != nil {
			t.Fatalf("SendRequest() error = %v", err)
		}
		if again != doc {
			t.Errorf("expected the same document back")
		}
	})

	t.Run("decline and cancel", func(t *testing.T) {
		doc, _ := SendRequest(setupUsers("a", "b"), env, a, "b")
		declined, _ := Decline(doc, b, "a")
		cancelled, _ := Cancel(doc, a, "b")
		for name, d := range map[string]*document.Document{"decline": declined, "cancel": cancelled} {
			if StatusOf(d, "a", "b") != StatusNone || StatusOf(d, "b", "a") != StatusNone {
				t.Errorf("%s: expected no relation left", name)
			}
			if len(d.Friendships) != 0 {
				t.Errorf("%s: expected no friendship record", name)
			}
		}
	})

	t.Run("unfriend and undo", func(t *testing.T) {
		doc, _ := SendRequest(setupUsers("a", "b"), env, a, "b")
		doc, _ = Accept(doc, env, b, "a")
		record := doc.Friendships[0]

		doc, cmd, err := Unfriend(doc, b, "a")
		if err != nil {
			t.Fatalf("Unfriend() error = %v", err)
		}
		if StatusOf(doc, "a", "b") != StatusNone || len(doc.Friendships) != 0 {
			t.Fatalf("expected friendship to be gone")
		}

		doc = cmd.Apply(doc)
		if StatusOf(doc, "a", "b") != StatusFriends || StatusOf(doc, "b", "a") != StatusFriends {
			t.Errorf("expected friendship to be restored")
		}
		if len(doc.Friendships) != 1 || doc.Friendships[0].ID != record.ID {
			t.Errorf("expected the original record back, got %+v", doc.Friendships)
		}
	})

	t.Run("unfriend strangers is a no-op", func(t *testing.T) {
		doc := setupUsers("a", "b")
		got, cmd, err := Unfriend(doc, a, "b")
		if err != nil || cmd != nil || got != doc {
			t.Errorf("expected no-op, got cmd=%v err=%v", cmd, err)
		}
	})

	t.Run("rejects temporary actors", func(t *testing.T) {
		if _, err := SendRequest(setupUsers("a", "b"), env, identity.Temporary("e1", "x", "a"), "b"); err == nil {
			t.Errorf("expected error for temporary actor")
		}
	})
}

func TestRelationStaysSymmetric(t *testing.T) {
	ids := []document.ID{"a", "b", "c", "d"}
	doc := setupUsers(ids...)
	rng := rand.New(rand.NewPCG(1, 2))

	for step := range 500 {
		from := ids[rng.IntN(len(ids))]
		to := ids[rng.IntN(len(ids))]
		actor := identity.Account(from)

		switch rng.IntN(5) {
		case 0:
			doc, _ = SendRequest(doc, env, actor, to)
		case 1:
			doc, _ = Accept(doc, env, actor, to)
		case 2:
			doc, _ = Decline(doc, actor, to)
		case 3:
			doc, _ = Cancel(doc, actor, to)
		case 4:
			doc, _, _ = Unfriend(doc, actor, to)
		}
		assertSymmetric(t, step, doc)
	}
}

func assertSymmetric(t *testing.T, step int, doc *document.Document) {
	t.Helper()
	for _, u := range doc.Users {
		for _, other := range doc.Users {
			if u.ID == other.ID {
				continue
			}
			if slices.Contains(u.Friends, other.ID) != slices.Contains(other.Friends, u.ID) {
				t.Fatalf("step %d: friends out of sync between %s and %s", step, u.ID, other.ID)
			}
			if slices.Contains(u.FriendRequestsOutgoing, other.ID) != slices.Contains(other.FriendRequestsIncoming, u.ID) {
				t.Fatalf("step %d: request out of sync between %s and %s", step, u.ID, other.ID)
			}
			friends := slices.Contains(u.Friends, other.ID)
			if friends && (slices.Contains(u.FriendRequestsOutgoing, other.ID) || slices.Contains(u.FriendRequestsIncoming, other.ID)) {
				t.Fatalf("step %d: %s and %s are friends with a pending request", step, u.ID, other.ID)
			}
			records := 0
			for _, f := range doc.Friendships {
				if f.Connects(u.ID, other.ID) {
					records++
				}
			}
			if friends && records != 1 || !friends && records != 0 {
				t.Fatalf("step %d: %d friendship records for %s/%s (friends=%v)", step, records, u.ID, other.ID, friends)
			}
		}
	}
}
