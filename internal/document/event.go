package document

import (
	"slices"
	"time"
)

// DefaultDuration is assumed when an event has no end time.
const DefaultDuration = 2 * time.Hour

// EndOrDefault returns the stored end time or start plus DefaultDuration.
func (e *Event) EndOrDefault() time.Time {
	if e.End != nil {
		return *e.End
	}
	return e.Start.Add(DefaultDuration)
}

// IsHost reports whether id owns the event.
func (e *Event) IsHost(id ID) bool {
	return id != "" && e.HostID == id
}

// IsHostOrCohost reports whether id may manage the event.
func (e *Event) IsHostOrCohost(id ID) bool {
	return e.IsHost(id) || (id != "" && slices.Contains(e.Cohosts, id))
}

// Capacity returns the guest limit, or ok=false when unlimited.
func (e *Event) Capacity() (limit int, ok bool) {
	if e.MaxGuests > 0 {
		return e.MaxGuests, true
	}
	return 0, false
}

// HasRoom reports whether yes answers can still be admitted.
func (e *Event) HasRoom() bool {
	limit, ok := e.Capacity()
	return !ok || e.YesCount() < limit
}

// YesCount counts attendees currently answering yes.
func (e *Event) YesCount() int {
	n := 0
	for _, r := range e.Attendees {
		if r.Status == StatusYes {
			n++
		}
	}
	return n
}

// Archived reports whether the event carries an archive timestamp.
func (e *Event) Archived() bool {
	return e.ArchivedAt != nil
}

// TempLoginByUser finds the temporary login backed by the given synthetic user.
func (e *Event) TempLoginByUser(userID ID) (string, TempLogin, bool) {
	for name, t := range e.TempAccounts {
		if t.UserID == userID {
			return name, t, true
		}
	}
	return "", TempLogin{}, false
}

// PostIndex returns the position of the post with id, or -1.
func (e *Event) PostIndex(id ID) int {
	return slices.IndexFunc(e.Posts, func(p Post) bool { return p.ID == id })
}

// Event looks up an event by id.
func (d *Document) Event(id ID) (*Event, bool) {
	ev, ok := d.Events[id]
	return ev, ok && ev != nil
}

// User looks up a user by id.
func (d *Document) User(id ID) (*User, bool) {
	u, ok := d.Users[id]
	return u, ok && u != nil
}

// InviteIndex returns the position of the invite with id, or -1.
func (d *Document) InviteIndex(id ID) int {
	return slices.IndexFunc(d.Invites, func(iv Invite) bool { return iv.ID == id })
}

// Series returns every event sharing seriesID ordered by start.
func (d *Document) Series(seriesID string) []*Event {
	if seriesID == "" {
		return nil
	}
	var out []*Event
	for _, ev := range d.Events {
		if ev.SeriesID == seriesID {
			out = append(out, ev)
		}
	}
	slices.SortFunc(out, func(a, b *Event) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.SeriesIndex - b.SeriesIndex
	})
	return out
}

// AddID appends id to ids unless already present.
func AddID(ids []ID, id ID) []ID {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// RemoveID returns ids without any occurrence of id.
func RemoveID(ids []ID, id ID) []ID {
	out := make([]ID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// ToggleID removes id when present, otherwise appends it.
func ToggleID(ids []ID, id ID) []ID {
	if slices.Contains(ids, id) {
		return RemoveID(ids, id)
	}
	return append(ids, id)
}
