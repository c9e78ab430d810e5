package links

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	lzstring "github.com/daku10/go-lz-string"

	"github.com/AlexTLDR/flok/internal/document"
)

// Snapshot is the public part of an event, small enough to travel inside a
// link and be shown without access to the document.
type Snapshot struct {
	ID          document.ID `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Address     string      `json:"address"`
	Start       time.Time   `json:"datetime"`
	End         *time.Time  `json:"endtime,omitempty"`
	Timezone    string      `json:"timezone"`
	IsPublic    bool        `json:"isPublic"`
	Cover       string      `json:"cover"`
}

// UnmarshalJSON reads datetime and endtime either as RFC 3339 instants or
// as offset-less wall-clock values in the snapshot's timezone. Values that
// parse as neither are left zero.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type plain Snapshot
	var raw struct {
		plain
		Start string `json:"datetime"`
		End   string `json:"endtime"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Snapshot(raw.plain)

	loc := document.Location(s.Timezone)
	s.Start, _ = document.ParseWallClock(raw.Start, loc)
	s.End = nil
	if end, ok := document.ParseWallClock(raw.End, loc); ok {
		s.End = &end
	}
	return nil
}

// SnapshotOf copies the shareable fields of ev.
func SnapshotOf(ev *document.Event) Snapshot {
	s := Snapshot{
		ID:          ev.ID,
		Title:       ev.Title,
		Description: ev.Description,
		Address:     ev.Address,
		Start:       ev.Start,
		Timezone:    ev.Timezone,
		IsPublic:    ev.IsPublic,
		Cover:       ev.Cover,
	}
	if ev.End != nil {
		end := *ev.End
		s.End = &end
	}
	return s
}

// Event turns the snapshot back into a read-only event for rendering.
func (s Snapshot) Event() *document.Event {
	ev := &document.Event{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Address:     s.Address,
		Start:       s.Start,
		Timezone:    s.Timezone,
		IsPublic:    s.IsPublic,
		Cover:       s.Cover,
	}
	if s.End != nil {
		end := *s.End
		ev.End = &end
	}
	return ev
}

// EncodeSnapshot packs ev into a URL-safe code. lz-string output is
// preferred; unpadded base64url is the fallback.
func EncodeSnapshot(ev *document.Event) (string, error) {
	raw, err := json.Marshal(SnapshotOf(ev))
	if err != nil {
		return "", err
	}
	if z, err := lzstring.CompressToEncodedURIComponent(string(raw)); err == nil && z != "" {
		return z, nil
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeSnapshot accepts either encoding. Codes that are neither yield
// false.
func DecodeSnapshot(code string) (Snapshot, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Snapshot{}, false
	}
	if raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(code, "=")); err == nil {
		if s, ok := parseSnapshot(string(raw)); ok {
			return s, true
		}
	}
	if raw, err := lzstring.DecompressFromEncodedURIComponent(code); err == nil {
		if s, ok := parseSnapshot(raw); ok {
			return s, true
		}
	}
	return Snapshot{}, false
}

func parseSnapshot(raw string) (Snapshot, bool) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return Snapshot{}, false
	}
	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Snapshot{}, false
	}
	return s, true
}

// ShortInviteURL is the portable invite link for ev under origin.
func ShortInviteURL(origin string, ev *document.Event) (string, error) {
	code, err := EncodeSnapshot(ev)
	if err != nil {
		return "", err
	}
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		return "#s:" + code, nil
	}
	return origin + "/#s:" + code, nil
}
