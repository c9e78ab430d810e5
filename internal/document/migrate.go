package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"
)

// CurrentVersion is the schema version written by this package.
//
//	1: legacy documents without a version key
//	2: top-level collections, user relation arrays and socials
//	3: notification and invite defaults
//	4: event collections and zoned timestamps
const CurrentVersion = 4

// ArchiveAfter is how long past its start an event is archived automatically.
const ArchiveAfter = 90 * 24 * time.Hour

// DefaultTimezone applies to events stored without a zone name.
const DefaultTimezone = "Europe/Copenhagen"

var ErrUnsupportedVersion = errors.New("unsupported document version")

type upgradeStep struct {
	version int
	apply   func(raw map[string]any, now time.Time)
}

var upgradeSteps = []upgradeStep{
	{version: 2, apply: upgradeCollections},
	{version: 3, apply: upgradeNotifications},
	{version: 4, apply: upgradeEvents},
}

// Decode parses a persisted document, upgrades older shapes and normalizes
// the result. Any error means the bytes cannot be trusted.
func Decode(data []byte, now time.Time) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if raw == nil {
		return nil, errors.New("failed to parse document: not an object")
	}
	if err := Upgrade(raw, now); err != nil {
		return nil, err
	}

	upgraded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upgraded document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(upgraded, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	Normalize(&doc, now)
	return &doc, nil
}

// Encode serializes the document for persistence.
func Encode(d *Document) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

// Migrate runs the full load pass over an in-memory document.
func Migrate(d *Document, now time.Time) (*Document, error) {
	data, err := Encode(d)
	if err != nil {
		return nil, err
	}
	return Decode(data, now)
}

// Upgrade applies every step newer than the stored version in order.
func Upgrade(raw map[string]any, now time.Time) error {
	version := 1
	if v, ok := raw["version"].(float64); ok && v >= 1 {
		version = int(v)
	}
	if version > CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	for _, step := range upgradeSteps {
		if version < step.version {
			step.apply(raw, now)
		}
	}
	raw["version"] = float64(CurrentVersion)
	return nil
}

func upgradeCollections(raw map[string]any, now time.Time) {
	stamp := now.UTC().Format(time.RFC3339Nano)
	for _, key := range []string{"users", "events", "sessions"} {
		ensureMap(raw, key)
	}
	for _, key := range []string{"friendships", "notifications", "invites"} {
		ensureSlice(raw, key)
	}

	for id, v := range raw["users"].(map[string]any) {
		u, ok := v.(map[string]any)
		if !ok {
			delete(raw["users"].(map[string]any), id)
			continue
		}
		setDefault(u, "id", id)
		setDefault(u, "createdAt", stamp)
		for _, key := range []string{"children", "friends", "friendRequestsIncoming", "friendRequestsOutgoing"} {
			ensureSlice(u, key)
		}
		ensureMap(u, "socials")
		delete(u, "follows")
	}

	for _, v := range raw["friendships"].([]any) {
		if f, ok := v.(map[string]any); ok {
			setDefault(f, "id", NewID())
			setDefault(f, "createdAt", stamp)
		}
	}
}

func upgradeNotifications(raw map[string]any, now time.Time) {
	stamp := now.UTC().Format(time.RFC3339Nano)
	for _, v := range raw["notifications"].([]any) {
		n, ok := v.(map[string]any)
		if !ok {
			continue
		}
		setDefault(n, "id", NewID())
		setDefault(n, "text", "")
		setDefault(n, "at", stamp)
		if _, ok := n["read"].(bool); !ok {
			n["read"] = false
		}
		if t, _ := n["type"].(string); t == "" {
			n["type"] = "info"
		}
		setDefault(n, "owner", "")
		imp, _ := n["importance"].(string)
		if Importance(imp) != ImportanceHigh && Importance(imp) != ImportanceLow {
			n["importance"] = string(DefaultImportance(n["type"].(string)))
		}
	}

	for _, v := range raw["invites"].([]any) {
		iv, ok := v.(map[string]any)
		if !ok {
			continue
		}
		setDefault(iv, "id", NewID())
		setDefault(iv, "at", stamp)
		if s, _ := iv["status"].(string); !InviteStatus(s).Valid() {
			iv["status"] = string(InvitePending)
		}
	}
}

func upgradeEvents(raw map[string]any, now time.Time) {
	stamp := now.UTC().Format(time.RFC3339Nano)
	events := raw["events"].(map[string]any)
	for id, v := range events {
		ev, ok := v.(map[string]any)
		if !ok {
			delete(events, id)
			continue
		}
		setDefault(ev, "id", id)
		setDefault(ev, "createdAt", stamp)
		if tz, _ := ev["timezone"].(string); tz == "" {
			ev["timezone"] = DefaultTimezone
		}
		for _, key := range []string{"attendees", "tempAccounts"} {
			ensureMap(ev, key)
		}
		for _, key := range []string{"cohosts", "waitlistQueue", "posts", "chat"} {
			ensureSlice(ev, key)
		}

		loc := Location(ev["timezone"].(string))
		if !zoneTimestamp(ev, "datetime", loc) {
			ev["datetime"] = ev["createdAt"]
		}
		if !zoneTimestamp(ev, "endtime", loc) {
			delete(ev, "endtime")
		}
		if a, _ := ev["archivedAt"].(string); a == "" {
			ev["archivedAt"] = nil
		}

		policy, ok := ev["rsvpPolicy"].(map[string]any)
		if !ok {
			policy = map[string]any{}
			ev["rsvpPolicy"] = policy
		}
		if t, _ := policy["type"].(string); !PolicyType(t).Valid() {
			policy["type"] = string(PolicyNone)
		}
		if !zoneTimestamp(policy, "deadline", loc) {
			delete(policy, "deadline")
		}

		if m, ok := ev["maxGuests"].(float64); !ok || m <= 0 {
			delete(ev, "maxGuests")
		}

		for actor, r := range ev["attendees"].(map[string]any) {
			rec, ok := r.(map[string]any)
			if !ok {
				delete(ev["attendees"].(map[string]any), actor)
				continue
			}
			setDefault(rec, "by", actor)
			setDefault(rec, "at", stamp)
			ensureSlice(rec, "withChildren")
		}

		for _, p := range ev["posts"].([]any) {
			post, ok := p.(map[string]any)
			if !ok {
				continue
			}
			setDefault(post, "id", NewID())
			setDefault(post, "at", stamp)
			for _, key := range []string{"images", "likes", "comments"} {
				ensureSlice(post, key)
			}
			for _, c := range post["comments"].([]any) {
				if comment, ok := c.(map[string]any); ok {
					setDefault(comment, "at", stamp)
					ensureSlice(comment, "likes")
				}
			}
			if poll, ok := post["poll"].(map[string]any); ok {
				ensureSlice(poll, "options")
				for _, o := range poll["options"].([]any) {
					if opt, ok := o.(map[string]any); ok {
						ensureSlice(opt, "votes")
					}
				}
			}
		}

		for _, c := range ev["chat"].([]any) {
			if msg, ok := c.(map[string]any); ok {
				setDefault(msg, "id", NewID())
				setDefault(msg, "at", stamp)
			}
		}

		for name, t := range ev["tempAccounts"].(map[string]any) {
			login, ok := t.(map[string]any)
			if !ok {
				delete(ev["tempAccounts"].(map[string]any), name)
				continue
			}
			setDefault(login, "createdAt", stamp)
			setDefault(login, "expiresAt", ev["datetime"])
		}
	}
}

// Normalize repairs a typed document in place. It is idempotent and runs on
// every load, so events crossing the archive horizon are caught even when the
// stored schema is current.
func Normalize(d *Document, now time.Time) {
	if d.Users == nil {
		d.Users = map[ID]*User{}
	}
	if d.Events == nil {
		d.Events = map[ID]*Event{}
	}
	if d.Sessions == nil {
		d.Sessions = map[ID]Session{}
	}
	if d.Friendships == nil {
		d.Friendships = []Friendship{}
	}
	if d.Notifications == nil {
		d.Notifications = []Notification{}
	}
	if d.Invites == nil {
		d.Invites = []Invite{}
	}
	d.Version = CurrentVersion

	for id, u := range d.Users {
		if u == nil {
			delete(d.Users, id)
			continue
		}
		u.Friends = nonNil(u.Friends)
		u.FriendRequestsIncoming = nonNil(u.FriendRequestsIncoming)
		u.FriendRequestsOutgoing = nonNil(u.FriendRequestsOutgoing)
		if u.Children == nil {
			u.Children = []Child{}
		}
	}

	for id, ev := range d.Events {
		if ev == nil {
			delete(d.Events, id)
			continue
		}
		normalizeEvent(ev)
		if ev.ArchivedAt == nil && now.Sub(ev.Start) > ArchiveAfter {
			at := ev.Start.Add(ArchiveAfter)
			ev.ArchivedAt = &at
		}
		if ev.InviteToken == "" {
			ev.InviteToken = d.NewInviteToken()
		}
	}

	for i := range d.Notifications {
		n := &d.Notifications[i]
		if n.Importance != ImportanceHigh && n.Importance != ImportanceLow {
			n.Importance = DefaultImportance(n.Type)
		}
	}
	for i := range d.Invites {
		if !d.Invites[i].Status.Valid() {
			d.Invites[i].Status = InvitePending
		}
	}
}

func normalizeEvent(ev *Event) {
	if ev.Attendees == nil {
		ev.Attendees = map[ID]RSVP{}
	}
	if ev.TempAccounts == nil {
		ev.TempAccounts = map[string]TempLogin{}
	}
	ev.Cohosts = nonNil(ev.Cohosts)
	ev.WaitlistQueue = nonNil(ev.WaitlistQueue)
	if ev.Posts == nil {
		ev.Posts = []Post{}
	}
	if ev.Chat == nil {
		ev.Chat = []ChatMessage{}
	}
	if !ev.RSVPPolicy.Type.Valid() {
		ev.RSVPPolicy.Type = PolicyNone
	}
	if ev.Timezone == "" {
		ev.Timezone = DefaultTimezone
	}
}

// DefaultImportance is high for attendance and friendship news.
func DefaultImportance(kind string) Importance {
	switch kind {
	case "rsvp", "friend":
		return ImportanceHigh
	default:
		return ImportanceLow
	}
}

func (p PolicyType) Valid() bool {
	switch p {
	case PolicyNone, PolicyDeadline, PolicyMax, PolicyBoth:
		return true
	}
	return false
}

func (s InviteStatus) Valid() bool {
	return s == InvitePending || s == InviteAccepted || s == InviteDeclined
}

var localLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02"}

// zoneTimestamp rewrites raw[key] as an RFC 3339 instant.
// It reports false when the value is absent or unusable.
func zoneTimestamp(raw map[string]any, key string, loc *time.Location) bool {
	s, _ := raw[key].(string)
	t, ok := ParseWallClock(s, loc)
	if !ok {
		return false
	}
	if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
		raw[key] = t.Format(time.RFC3339Nano)
	}
	return true
}

// ParseWallClock reads s as an RFC 3339 instant. Browser forms stored
// wall-clock values without an offset; those are read in loc.
func ParseWallClock(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Location resolves an IANA zone name, falling back to UTC.
func Location(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func ensureMap(raw map[string]any, key string) {
	if _, ok := raw[key].(map[string]any); !ok {
		raw[key] = map[string]any{}
	}
}

func ensureSlice(raw map[string]any, key string) {
	if _, ok := raw[key].([]any); !ok {
		raw[key] = []any{}
	}
}

func setDefault(raw map[string]any, key string, value any) {
	if s, ok := raw[key].(string); !ok || s == "" {
		raw[key] = value
	}
}

func nonNil(ids []ID) []ID {
	if ids == nil {
		return []ID{}
	}
	return ids
}
