package feed

import (
	"slices"
	"testing"
	"time"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/op"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

var (
	host  = identity.Account("host")
	guest = identity.Account("guest")
)

func setupDoc(allowGuestPosts bool) *document.Document {
	doc := document.New()
	doc.Users["host"] = &document.User{ID: "host", Name: "Hanne"}
	doc.Users["guest"] = &document.User{ID: "guest", Name: "Gustav"}
	doc.Events["e1"] = &document.Event{
		ID:               "e1",
		Title:            "Loppemarked",
		HostID:           "host",
		IsPublic:         true,
		AllowGuestPosts:  allowGuestPosts,
		NotifyOnHostPost: true,
		Attendees:        map[document.ID]document.RSVP{"guest": {Status: document.StatusYes}},
		Posts:            []document.Post{},
		Chat:             []document.ChatMessage{},
	}
	return doc
}

func TestAddPost(t *testing.T) {
	t.Run("host post notifies guests", func(t *testing.T) {
		doc, p, err := AddPost(setupDoc(false), op.At(testNow), "e1", host, "Husk kaffe", nil)
		if err != nil {
			t.Fatalf("AddPost() error = %v", err)
		}
		if p.Type != document.PostHost {
			t.Errorf("expected host post, got %s", p.Type)
		}
		if len(doc.Notifications) != 1 || doc.Notifications[0].Owner != "guest" {
			t.Errorf("expected a notification for the guest, got %+v", doc.Notifications)
		}
	})

	t.Run("guest posts gated", func(t *testing.T) {
		_, _, err := AddPost(setupDoc(false), op.At(testNow), "e1", guest, "Hej", nil)
		if apperr.KindOf(err) != apperr.KindPolicy {
			t.Errorf("expected policy error, got %v", err)
		}
		_, p, err := AddPost(setupDoc(true), op.At(testNow), "e1", guest, "Hej", nil)
		if err != nil || p.Type != document.PostGuest {
			t.Errorf("expected guest post, got %+v %v", p, err)
		}
	})

	t.Run("empty rejected", func(t *testing.T) {
		_, _, err := AddPost(setupDoc(true), op.At(testNow), "e1", host, "  ", nil)
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("no actor", func(t *testing.T) {
		_, _, err := AddPost(setupDoc(true), op.At(testNow), "e1", identity.Actor{}, "Hej", nil)
		if apperr.KindOf(err) != apperr.KindUnauthenticated {
			t.Errorf("expected unauthenticated, got %v", err)
		}
	})
}

func pollDoc(t *testing.T, multi bool) (*document.Document, document.Post) {
	t.Helper()
	doc, p, err := AddPoll(setupDoc(true), op.At(testNow), "e1", host, "", []string{"Pizza", "Sushi", " "}, multi)
	if err != nil {
		t.Fatalf("AddPoll() error = %v", err)
	}
	return doc, p
}

func votes(doc *document.Document, postID document.ID) [][]document.ID {
	ev := doc.Events["e1"]
	p := ev.Posts[ev.PostIndex(postID)]
	var out [][]document.ID
	for _, o := range p.Poll.Options {
		out = append(out, o.Votes)
	}
	return out
}

func TestAddPoll(t *testing.T) {
	_, p := pollDoc(t, false)
	if p.Poll.Question != "Afstemning" || len(p.Poll.Options) != 2 {
		t.Errorf("unexpected poll %+v", p.Poll)
	}

	_, _, err := AddPoll(setupDoc(true), op.At(testNow), "e1", host, "Mad?", []string{"Pizza"}, false)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected validation error for one option, got %v", err)
	}
}

func TestSingleChoiceVote(t *testing.T) {
	doc, p := pollDoc(t, false)
	a, b := p.Poll.Options[0].ID, p.Poll.Options[1].ID
	env := op.At(testNow)

	doc, _ = Vote(doc, env, "e1", guest, p.ID, a)
	doc, err := Vote(doc, env, "e1", guest, p.ID, b)
	if err != nil {
		t.Fatalf("Vote() error = %v", err)
	}
	got := votes(doc, p.ID)
	if slices.Contains(got[0], "guest") || !slices.Contains(got[1], "guest") {
		t.Errorf("expected vote to move from A to B, got %v", got)
	}

	doc, _ = Vote(doc, env, "e1", guest, p.ID, b)
	got = votes(doc, p.ID)
	if len(got[0]) != 0 || len(got[1]) != 0 {
		t.Errorf("expected toggling twice to clear the vote, got %v", got)
	}
}

func TestMultiChoiceVote(t *testing.T) {
	doc, p := pollDoc(t, true)
	env := op.At(testNow)

	doc, _ = Vote(doc, env, "e1", guest, p.ID, p.Poll.Options[0].ID)
	doc, _ = Vote(doc, env, "e1", guest, p.ID, p.Poll.Options[1].ID)
	got := votes(doc, p.ID)
	if !slices.Contains(got[0], "guest") || !slices.Contains(got[1], "guest") {
		t.Errorf("expected votes on both options, got %v", got)
	}

	if _, err := Vote(doc, env, "e1", guest, p.ID, "missing"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found for unknown option, got %v", err)
	}
}

func TestLikesAndComments(t *testing.T) {
	env := op.At(testNow)
	doc, p, _ := AddPost(setupDoc(true), env, "e1", host, "Billeder fra i går", nil)
	before := len(doc.Notifications)

	doc, _ = ToggleLike(doc, env, "e1", guest, p.ID)
	if got := doc.Events["e1"].Posts[0].Likes; !slices.Equal(got, []document.ID{"guest"}) {
		t.Errorf("expected one like, got %v", got)
	}
	if len(doc.Notifications) != before+1 {
		t.Errorf("expected the author to be notified of the like")
	}
	doc, _ = ToggleLike(doc, env, "e1", guest, p.ID)
	if got := doc.Events["e1"].Posts[0].Likes; len(got) != 0 {
		t.Errorf("expected like to be removed, got %v", got)
	}

	doc, c, err := AddComment(doc, env, "e1", guest, p.ID, "Flot!")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	doc, err = ToggleCommentLike(doc, env, "e1", host, p.ID, c.ID)
	if err != nil {
		t.Fatalf("ToggleCommentLike() error = %v", err)
	}
	if got := doc.Events["e1"].Posts[0].Comments[0].Likes; !slices.Equal(got, []document.ID{"host"}) {
		t.Errorf("expected comment like, got %v", got)
	}
}

func TestPinAndDeleteAreManaged(t *testing.T) {
	env := op.At(testNow)
	doc, p, _ := AddPost(setupDoc(true), env, "e1", guest, "Hej", nil)

	if _, err := SetPinned(doc, env, "e1", guest, p.ID, true); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("expected forbidden pin for guest, got %v", err)
	}
	if _, err := DeletePost(doc, env, "e1", guest, p.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("expected forbidden delete for guest, got %v", err)
	}

	pinned, err := SetPinned(doc, env, "e1", host, p.ID, true)
	if err != nil || !pinned.Events["e1"].Posts[0].Pinned {
		t.Errorf("expected host to pin, got %v", err)
	}
	deleted, err := DeletePost(doc, env, "e1", host, p.ID)
	if err != nil || len(deleted.Events["e1"].Posts) != 0 {
		t.Errorf("expected host to delete, got %v", err)
	}
}

func TestUnified(t *testing.T) {
	ev := &document.Event{
		Posts: []document.Post{
			{ID: "old-pinned", At: testNow.Add(-3 * time.Hour), Pinned: true},
			{ID: "new", At: testNow.Add(-1 * time.Hour)},
			{ID: "newest-pinned", At: testNow.Add(-2 * time.Hour), Pinned: true},
		},
		Chat: []document.ChatMessage{
			{ID: "chat", At: testNow},
			{ID: "old-chat", At: testNow.Add(-4 * time.Hour)},
		},
	}

	var got []document.ID
	for _, it := range Unified(ev) {
		if it.Post != nil {
			got = append(got, it.Post.ID)
		} else {
			got = append(got, it.Chat.ID)
		}
	}
	want := []document.ID{"newest-pinned", "old-pinned", "chat", "new", "old-chat"}
	if !slices.Equal(got, want) {
		t.Errorf("Unified() = %v, want %v", got, want)
	}
}

func TestAddChat(t *testing.T) {
	doc, m, err := AddChat(setupDoc(false), op.At(testNow), "e1", guest, "Jeg tager kage med")
	if err != nil {
		t.Fatalf("AddChat() error = %v", err)
	}
	if len(doc.Events["e1"].Chat) != 1 || doc.Events["e1"].Chat[0].ID != m.ID {
		t.Errorf("expected message to be appended")
	}
	if n := doc.Notifications[0]; n.Owner != "host" || n.Text != "Gustav skrev i chatten" {
		t.Errorf("unexpected notification %+v", n)
	}
}
