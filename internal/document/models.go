// Package document holds the persisted aggregate and its schema upgrades.
package document

import "time"

// ID identifies users, events, posts and every other record.
type ID = string

// StorageKey is the fixed key the document is persisted under.
const StorageKey = "flok-db-v1"

type RSVPStatus string

const (
	StatusYes   RSVPStatus = "yes"
	StatusNo    RSVPStatus = "no"
	StatusMaybe RSVPStatus = "maybe"
)

// Valid reports whether s is one of the three answers.
func (s RSVPStatus) Valid() bool {
	return s == StatusYes || s == StatusNo || s == StatusMaybe
}

type PolicyType string

const (
	PolicyNone     PolicyType = "none"
	PolicyDeadline PolicyType = "deadline"
	PolicyMax      PolicyType = "max"
	PolicyBoth     PolicyType = "both"
)

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteDeclined InviteStatus = "declined"
)

type Importance string

const (
	ImportanceHigh Importance = "high"
	ImportanceLow  Importance = "low"
)

type PostType string

const (
	PostHost  PostType = "host"
	PostGuest PostType = "guest"
	PostPoll  PostType = "poll"
)

type Child struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type Socials struct {
	Website   string `json:"website,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	X         string `json:"x,omitempty"`
	TikTok    string `json:"tiktok,omitempty"`
}

type User struct {
	ID                     ID        `json:"id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Phone                  string    `json:"phone"`
	IsParent               bool      `json:"isParent"`
	Children               []Child   `json:"children"`
	Friends                []ID      `json:"friends"`
	FriendRequestsIncoming []ID      `json:"friendRequestsIncoming"`
	FriendRequestsOutgoing []ID      `json:"friendRequestsOutgoing"`
	Socials                Socials   `json:"socials"`
	CreatedAt              time.Time `json:"createdAt"`
}

// HasChild reports whether id names one of the user's children.
func (u *User) HasChild(id ID) bool {
	for _, c := range u.Children {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Friendship is the shared record written when two users become friends.
type Friendship struct {
	ID        ID        `json:"id"`
	A         ID        `json:"a"`
	B         ID        `json:"b"`
	CreatedAt time.Time `json:"createdAt"`
}

// Connects reports whether the record links a and b in either order.
func (f Friendship) Connects(a, b ID) bool {
	return (f.A == a && f.B == b) || (f.A == b && f.B == a)
}

type RSVP struct {
	Status       RSVPStatus `json:"status"`
	By           ID         `json:"by"`
	At           time.Time  `json:"at"`
	WithChildren []ID       `json:"withChildren"`
}

type PollOption struct {
	ID    ID     `json:"id"`
	Text  string `json:"text"`
	Votes []ID   `json:"votes"`
}

type Poll struct {
	Question string       `json:"question"`
	Options  []PollOption `json:"options"`
	Multi    bool         `json:"multi,omitempty"`
}

type Comment struct {
	ID    ID        `json:"id"`
	By    ID        `json:"by"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
	Likes []ID      `json:"likes"`
}

type Post struct {
	ID       ID        `json:"id"`
	By       ID        `json:"by"`
	Type     PostType  `json:"type"`
	Text     string    `json:"text"`
	Images   []string  `json:"images"`
	Pinned   bool      `json:"pinned"`
	At       time.Time `json:"at"`
	Likes    []ID      `json:"likes"`
	Comments []Comment `json:"comments"`
	Poll     *Poll     `json:"poll,omitempty"`
}

type ChatMessage struct {
	ID   ID        `json:"id"`
	By   ID        `json:"by"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// TempLogin is an event-scoped guest login keyed by username.
type TempLogin struct {
	PIN       string    `json:"pin"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    ID        `json:"userId"`
}

type RSVPPolicy struct {
	Type     PolicyType `json:"type"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

type Event struct {
	ID               ID                   `json:"id"`
	Title            string               `json:"title"`
	Cover            string               `json:"cover,omitempty"`
	Description      string               `json:"description"`
	Address          string               `json:"address"`
	Start            time.Time            `json:"datetime"`
	End              *time.Time           `json:"endtime,omitempty"`
	Timezone         string               `json:"timezone"`
	IsPublic         bool                 `json:"isPublic"`
	HasPassword      bool                 `json:"hasPassword"`
	Password         string               `json:"password,omitempty"`
	HostID           ID                   `json:"hostId"`
	Cohosts          []ID                 `json:"cohosts"`
	AllowGuestPosts  bool                 `json:"allowGuestPosts"`
	NotifyOnHostPost bool                 `json:"notifyOnHostPost"`
	MaxGuests        int                  `json:"maxGuests,omitempty"`
	Waitlist         bool                 `json:"waitlist"`
	AutoPromote      bool                 `json:"autoPromote"`
	RSVPPolicy       RSVPPolicy           `json:"rsvpPolicy"`
	Attendees        map[ID]RSVP          `json:"attendees"`
	WaitlistQueue    []ID                 `json:"waitlistQueue"`
	Posts            []Post               `json:"posts"`
	Chat             []ChatMessage        `json:"chat"`
	TempAccounts     map[string]TempLogin `json:"tempAccounts"`
	InviteToken      string               `json:"inviteToken"`
	CreatedAt        time.Time            `json:"createdAt"`
	ArchivedAt       *time.Time           `json:"archivedAt"`
	SeriesID         string               `json:"seriesId,omitempty"`
	SeriesIndex      int                  `json:"seriesIndex,omitempty"`
	SeriesTotal      int                  `json:"seriesTotal,omitempty"`
}

type Invite struct {
	ID      ID           `json:"id"`
	EventID ID           `json:"eventId"`
	From    ID           `json:"from"`
	To      ID           `json:"to"`
	At      time.Time    `json:"at"`
	Status  InviteStatus `json:"status"`
}

type Notification struct {
	ID         ID         `json:"id"`
	Text       string     `json:"text"`
	At         time.Time  `json:"at"`
	Read       bool       `json:"read"`
	Type       string     `json:"type"`
	Owner      ID         `json:"owner"`
	Importance Importance `json:"importance"`
}

type TempSession struct {
	EventID  ID     `json:"eventId"`
	Username string `json:"username"`
}

// Session binds a local session id to an account or a temporary login.
// A session holding neither is a guest.
type Session struct {
	UserID ID           `json:"userId,omitempty"`
	Temp   *TempSession `json:"temp,omitempty"`
}

// Document is the whole persisted state.
type Document struct {
	Version       int            `json:"version"`
	Users         map[ID]*User   `json:"users"`
	Friendships   []Friendship   `json:"friendships"`
	Events        map[ID]*Event  `json:"events"`
	Sessions      map[ID]Session `json:"sessions"`
	Notifications []Notification `json:"notifications"`
	Invites       []Invite       `json:"invites"`
}

// New returns an empty document at the current schema version.
func New() *Document {
	return &Document{
		Version:       CurrentVersion,
		Users:         map[ID]*User{},
		Friendships:   []Friendship{},
		Events:        map[ID]*Event{},
		Sessions:      map[ID]Session{},
		Notifications: []Notification{},
		Invites:       []Invite{},
	}
}
