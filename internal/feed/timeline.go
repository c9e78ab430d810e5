package feed

import (
	"slices"
	"time"

	"github.com/AlexTLDR/flok/internal/document"
)

// Item is one entry of the unified activity list.
type Item struct {
	Kind   string                `json:"kind"`
	At     time.Time             `json:"at"`
	Pinned bool                  `json:"pinned"`
	Post   *document.Post        `json:"post,omitempty"`
	Chat   *document.ChatMessage `json:"chat,omitempty"`
}

const (
	KindPost = "post"
	KindChat = "chat"
)

// Unified merges posts and chat: pinned posts first, then newest first
// within each group.
func Unified(ev *document.Event) []Item {
	items := make([]Item, 0, len(ev.Posts)+len(ev.Chat))
	for i := range ev.Posts {
		p := ev.Posts[i]
		items = append(items, Item{Kind: KindPost, At: p.At, Pinned: p.Pinned, Post: &p})
	}
	for i := range ev.Chat {
		m := ev.Chat[i]
		items = append(items, Item{Kind: KindChat, At: m.At, Chat: &m})
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return b.At.Compare(a.At)
	})
	return items
}
