package handlers

import (
	"net/http"

	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/feed"
	"github.com/AlexTLDR/flok/internal/media"
)

// HandleFeed returns an event's posts and chat as one list.
func HandleFeed(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		ev, _, ok := c.viewable(c.doc(), c.vars("id"))
		if !ok {
			return
		}
		c.ok(http.StatusOK, feed.Unified(ev))
	}
}

type postRequest struct {
	Text   string   `json:"text"`
	Images []string `json:"images"`
}

// HandleAddPost stores attached images, then appends the post.
func HandleAddPost(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body postRequest
		if !c.decode(&body) {
			return
		}
		images, err := media.Attach(r.Context(), s.GetMedia(), body.Images, media.DefaultMaxBytes)
		if err != nil {
			c.fail(err)
			return
		}
		id := c.vars("id")
		var post document.Post
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, p, err := feed.AddPost(doc, c.env, id, c.actor(doc, id), body.Text, images)
			post = p
			return next, err
		}) {
			return
		}
		c.ok(http.StatusCreated, post)
	}
}

type pollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Multi    bool     `json:"multi"`
}

// HandleAddPoll appends a poll.
func HandleAddPoll(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body pollRequest
		if !c.decode(&body) {
			return
		}
		id := c.vars("id")
		var post document.Post
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, p, err := feed.AddPoll(doc, c.env, id, c.actor(doc, id), body.Question, body.Options, body.Multi)
			post = p
			return next, err
		}) {
			return
		}
		c.ok(http.StatusCreated, post)
	}
}

type voteRequest struct {
	OptionID document.ID `json:"optionId"`
}

// HandleVote toggles a poll vote.
func HandleVote(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body voteRequest
		if !c.decode(&body) {
			return
		}
		id := c.vars("id")
		c.postChange(id, func(doc *document.Document) (*document.Document, error) {
			return feed.Vote(doc, c.env, id, c.actor(doc, id), c.vars("post"), body.OptionID)
		})
	}
}

// HandleLikePost toggles the actor's like on a post.
func HandleLikePost(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		id := c.vars("id")
		c.postChange(id, func(doc *document.Document) (*document.Document, error) {
			return feed.ToggleLike(doc, c.env, id, c.actor(doc, id), c.vars("post"))
		})
	}
}

type commentRequest struct {
	Text string `json:"text"`
}

// HandleAddComment comments on a post.
func HandleAddComment(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body commentRequest
		if !c.decode(&body) {
			return
		}
		id := c.vars("id")
		var comment document.Comment
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, cm, err := feed.AddComment(doc, c.env, id, c.actor(doc, id), c.vars("post"), body.Text)
			comment = cm
			return next, err
		}) {
			return
		}
		c.ok(http.StatusCreated, comment)
	}
}

// HandleLikeComment toggles the actor's like on a comment.
func HandleLikeComment(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		id := c.vars("id")
		c.postChange(id, func(doc *document.Document) (*document.Document, error) {
			return feed.ToggleCommentLike(doc, c.env, id, c.actor(doc, id), c.vars("post"), c.vars("comment"))
		})
	}
}

type pinRequest struct {
	Pinned bool `json:"pinned"`
}

// HandlePinPost pins or unpins a post.
func HandlePinPost(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body pinRequest
		if !c.decode(&body) {
			return
		}
		id := c.vars("id")
		c.postChange(id, func(doc *document.Document) (*document.Document, error) {
			return feed.SetPinned(doc, c.env, id, c.actor(doc, id), c.vars("post"), body.Pinned)
		})
	}
}

// HandleDeletePost removes a post.
func HandleDeletePost(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		id := c.vars("id")
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			return feed.DeletePost(doc, c.env, id, c.actor(doc, id), c.vars("post"))
		}) {
			return
		}
		c.ok(http.StatusNoContent, nil)
	}
}

// HandleAddChat appends a chat message.
func HandleAddChat(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := begin(s, w, r)
		if !ok {
			return
		}
		var body commentRequest
		if !c.decode(&body) {
			return
		}
		id := c.vars("id")
		var msg document.ChatMessage
		if !c.update(func(doc *document.Document) (*document.Document, error) {
			next, m, err := feed.AddChat(doc, c.env, id, c.actor(doc, id), body.Text)
			msg = m
			return next, err
		}) {
			return
		}
		c.ok(http.StatusCreated, msg)
	}
}

// postChange applies fn and answers with the post as it now stands.
func (c *call) postChange(eventID document.ID, fn func(*document.Document) (*document.Document, error)) {
	var post document.Post
	if !c.update(func(doc *document.Document) (*document.Document, error) {
		next, err := fn(doc)
		if err == nil {
			if ev, ok := next.Event(eventID); ok {
				if i := ev.PostIndex(c.vars("post")); i >= 0 {
					post = ev.Posts[i]
				}
			}
		}
		return next, err
	}) {
		return
	}
	c.ok(http.StatusOK, post)
}
