// Package feed handles an event's posts, polls, comments, likes and chat.
package feed

import (
	"strings"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/identity"
	"github.com/AlexTLDR/flok/internal/notify"
	"github.com/AlexTLDR/flok/internal/op"
)

const defaultPollQuestion = "Afstemning"

// open returns a copy of doc and its event once actor may take part in it.
func open(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor) (*document.Document, *document.Event, error) {
	ev, ok := doc.Event(eventID)
	if !ok {
		return nil, nil, apperr.NotFound(apperr.CodeEventNotFound, "event not found")
	}
	if err := actor.Require(); err != nil {
		return nil, nil, err
	}
	if !identity.CanView(doc, ev, actor, env.Now) {
		return nil, nil, apperr.Forbidden(apperr.CodeNotAllowed, "event is not visible to this actor")
	}
	next := doc.Clone()
	ev, _ = next.Event(eventID)
	return next, ev, nil
}

// openManaged is open restricted to the host and co-hosts.
func openManaged(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor) (*document.Document, *document.Event, error) {
	next, ev, err := open(doc, env, eventID, actor)
	if err != nil {
		return nil, nil, err
	}
	if err := identity.RequireManager(ev, actor); err != nil {
		return nil, nil, err
	}
	return next, ev, nil
}

func postType(ev *document.Event, actor identity.Actor) (document.PostType, error) {
	if ev.IsHostOrCohost(actor.ID()) {
		return document.PostHost, nil
	}
	if !ev.AllowGuestPosts {
		return "", apperr.Policy(apperr.CodeGuestPostsOff, "guests may not post in this event")
	}
	return document.PostGuest, nil
}

// AddPost appends a text or image post.
func AddPost(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, text string, images []string) (*document.Document, document.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(images) == 0 {
		return doc, document.Post{}, apperr.Validation(apperr.CodeInvalidInput, "post needs text or an image")
	}
	next, ev, err := open(doc, env, eventID, actor)
	if err != nil {
		return doc, document.Post{}, err
	}
	kind, err := postType(ev, actor)
	if err != nil {
		return doc, document.Post{}, err
	}

	p := newPost(env, actor, kind, text)
	p.Images = append(p.Images, images...)
	ev.Posts = append(ev.Posts, p)
	if kind == document.PostHost && ev.NotifyOnHostPost {
		notifyGuests(next, env, ev, actor.ID(), notify.TypePost, env.T("Værtsopslag delt i %s", ev.Title))
	}
	return next, p, nil
}

// AddPoll appends a poll. Question and options are fixed from here on.
func AddPoll(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, question string, options []string, multi bool) (*document.Document, document.Post, error) {
	var opts []document.PollOption
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, document.PollOption{ID: document.NewID(), Text: o, Votes: []document.ID{}})
		}
	}
	if len(opts) < 2 {
		return doc, document.Post{}, apperr.Validation(apperr.CodePollOptions, "a poll needs at least two options")
	}
	next, ev, err := open(doc, env, eventID, actor)
	if err != nil {
		return doc, document.Post{}, err
	}
	if _, err := postType(ev, actor); err != nil {
		return doc, document.Post{}, err
	}

	question = strings.TrimSpace(question)
	if question == "" {
		question = env.T(defaultPollQuestion)
	}
	p := newPost(env, actor, document.PostPoll, question)
	p.Poll = &document.Poll{Question: question, Options: opts, Multi: multi}
	ev.Posts = append(ev.Posts, p)
	notifyGuests(next, env, ev, actor.ID(), notify.TypePost, env.T("Ny afstemning oprettet i %s", ev.Title))
	return next, p, nil
}

func newPost(env op.Env, actor identity.Actor, kind document.PostType, text string) document.Post {
	return document.Post{
		ID:       document.NewID(),
		By:       actor.ID(),
		Type:     kind,
		Text:     text,
		Images:   []string{},
		At:       env.Now,
		Likes:    []document.ID{},
		Comments: []document.Comment{},
	}
}

// Vote toggles the actor's vote on an option. Single-choice polls first
// clear the actor from every other option.
func Vote(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, postID, optionID document.ID) (*document.Document, error) {
	next, ev, err := open(doc, env, eventID, actor)
	if err != nil {
		return doc, err
	}
	p, err := findPost(ev, postID)
	if err != nil {
		return doc, err
	}
	if p.Poll == nil {
		return doc, apperr.NotFound(apperr.CodePostNotFound, "post has no poll")
	}

	chosen := -1
	for i, o := range p.Poll.Options {
		if o.ID == optionID {
			chosen = i
		}
	}
	if chosen < 0 {
		return doc, apperr.NotFound(apperr.CodePostNotFound, "poll option not found")
	}

	id := actor.ID()
	if !p.Poll.Multi {
		for i := range p.Poll.Options {
			if i != chosen {
				p.Poll.Options[i].Votes = document.RemoveID(p.Poll.Options[i].Votes, id)
			}
		}
	}
	p.Poll.Options[chosen].Votes = document.ToggleID(p.Poll.Options[chosen].Votes, id)
	return next, nil
}

// ToggleLike likes or unlikes a post.
func ToggleLike(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, postID document.ID) (*document.Document, error) {
	next, ev, err := open(doc, env, eventID, actor)
	if err != nil {
		return doc, err
	}
	p, err := findPost(ev, postID)
	if err != nil {
		return doc, err
	}
	before := len(p.Likes)
	p.Likes = document.ToggleID(p.Likes, actor.ID())
	if len(p.Likes) > before && p.By != actor.ID() {
		name := identity.DisplayName(next, ev.ID, actor.ID(), env.T("Gæst"))
		notify.Push(next, env, p.By, notify.TypeLike, document.ImportanceLow,
			env.T("%s synes godt om et opslag", name))
	}
	return next, nil
}

// AddComment appends a comment to a post.
func AddComment(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, postID document.ID, text string) (*document.Document, document.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return doc, document.Comment{}, apperr.Validation(apperr.CodeInvalidInput, "comment is empty")
	}
	next, ev, err := open(doc, env, eventID, actor)
	if err != nil {
		return doc, document.Comment{}, err
	}
	p, err := findPost(ev, postID)
	if err != nil {
		return doc, document.Comment{}, err
	}
	c := document.Comment{ID: document.NewID(), By: actor.ID(), Text: text, At: env.Now, Likes: []document.ID{}}
	p.Comments = append(p.Comments, c)
	if p.By != actor.ID() {
		name := identity.DisplayName(next, ev.ID, actor.ID(), env.T("Gæst"))
		notify.Push(next, env, p.By, notify.TypeComment, document.ImportanceLow,
			env.T("%s kommenterede på et opslag", name))
	}
	return next, c, nil
}

// ToggleCommentLike likes or unlikes a comment.
func ToggleCommentLike(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, postID, commentID document.ID) (*document.Document, error) {
	next, ev, err := open(doc, env, eventID, actor)
	if err != nil {
		return doc, err
	}
	p, err := findPost(ev, postID)
	if err != nil {
		return doc, err
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			p.Comments[i].Likes = document.ToggleID(p.Comments[i].Likes, actor.ID())
			return next, nil
		}
	}
	return doc, apperr.NotFound(apperr.CodeCommentNotFound, "comment not found")
}

// SetPinned pins or unpins a post.
func SetPinned(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, postID document.ID, pinned bool) (*document.Document, error) {
	next, ev, err := openManaged(doc, env, eventID, actor)
	if err != nil {
		return doc, err
	}
	p, err := findPost(ev, postID)
	if err != nil {
		return doc, err
	}
	p.Pinned = pinned
	return next, nil
}

// DeletePost removes a post with its comments.
func DeletePost(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, postID document.ID) (*document.Document, error) {
	next, ev, err := openManaged(doc, env, eventID, actor)
	if err != nil {
		return doc, err
	}
	i := ev.PostIndex(postID)
	if i < 0 {
		return doc, apperr.NotFound(apperr.CodePostNotFound, "post not found")
	}
	ev.Posts = append(ev.Posts[:i], ev.Posts[i+1:]...)
	return next, nil
}

// AddChat appends a chat message.
func AddChat(doc *document.Document, env op.Env, eventID document.ID, actor identity.Actor, text string) (*document.Document, document.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return doc, document.ChatMessage{}, apperr.Validation(apperr.CodeInvalidInput, "message is empty")
	}
	next, ev, err := open(doc, env, eventID, actor)
	if err != nil {
		return doc, document.ChatMessage{}, err
	}
	m := document.ChatMessage{ID: document.NewID(), By: actor.ID(), Text: text, At: env.Now}
	ev.Chat = append(ev.Chat, m)
	if ev.HostID != actor.ID() {
		name := identity.DisplayName(next, ev.ID, actor.ID(), env.T("Gæst"))
		notify.Push(next, env, ev.HostID, notify.TypeChat, document.ImportanceLow,
			env.T("%s skrev i chatten", name))
	}
	return next, m, nil
}

func findPost(ev *document.Event, postID document.ID) (*document.Post, error) {
	i := ev.PostIndex(postID)
	if i < 0 {
		return nil, apperr.NotFound(apperr.CodePostNotFound, "post not found")
	}
	return &ev.Posts[i], nil
}

// notifyGuests tells everyone with an answer other than no, except author.
func notifyGuests(doc *document.Document, env op.Env, ev *document.Event, author document.ID, kind, text string) {
	for id, r := range ev.Attendees {
		if id == author || r.Status == document.StatusNo {
			continue
		}
		notify.Push(doc, env, id, kind, document.ImportanceLow, text)
	}
}
