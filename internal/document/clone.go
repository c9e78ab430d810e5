package document

import "time"

// Clone returns a deep copy of the document. Engines mutate the copy and
// hand it back, so a failed operation never leaks partial changes.
func (d *Document) Clone() *Document {
	if d == nil {
		return New()
	}
	out := &Document{
		Version:       d.Version,
		Users:         make(map[ID]*User, len(d.Users)),
		Friendships:   append([]Friendship{}, d.Friendships...),
		Events:        make(map[ID]*Event, len(d.Events)),
		Sessions:      make(map[ID]Session, len(d.Sessions)),
		Notifications: append([]Notification{}, d.Notifications...),
		Invites:       append([]Invite{}, d.Invites...),
	}
	for id, u := range d.Users {
		out.Users[id] = u.Clone()
	}
	for id, ev := range d.Events {
		out.Events[id] = ev.Clone()
	}
	for id, s := range d.Sessions {
		out.Sessions[id] = s.Clone()
	}
	return out
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Children = append([]Child{}, u.Children...)
	c.Friends = cloneIDs(u.Friends)
	c.FriendRequestsIncoming = cloneIDs(u.FriendRequestsIncoming)
	c.FriendRequestsOutgoing = cloneIDs(u.FriendRequestsOutgoing)
	return &c
}

func (s Session) Clone() Session {
	if s.Temp != nil {
		t := *s.Temp
		s.Temp = &t
	}
	return s
}

func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.End = cloneTime(e.End)
	c.ArchivedAt = cloneTime(e.ArchivedAt)
	c.RSVPPolicy.Deadline = cloneTime(e.RSVPPolicy.Deadline)
	c.Cohosts = cloneIDs(e.Cohosts)
	c.WaitlistQueue = cloneIDs(e.WaitlistQueue)
	c.Attendees = make(map[ID]RSVP, len(e.Attendees))
	for id, r := range e.Attendees {
		r.WithChildren = cloneIDs(r.WithChildren)
		c.Attendees[id] = r
	}
	c.Posts = make([]Post, len(e.Posts))
	for i, p := range e.Posts {
		c.Posts[i] = p.Clone()
	}
	c.Chat = append([]ChatMessage{}, e.Chat...)
	c.TempAccounts = make(map[string]TempLogin, len(e.TempAccounts))
	for name, t := range e.TempAccounts {
		c.TempAccounts[name] = t
	}
	return &c
}

func (p Post) Clone() Post {
	p.Images = append([]string{}, p.Images...)
	p.Likes = cloneIDs(p.Likes)
	comments := make([]Comment, len(p.Comments))
	for i, c := range p.Comments {
		c.Likes = cloneIDs(c.Likes)
		comments[i] = c
	}
	p.Comments = comments
	if p.Poll != nil {
		poll := *p.Poll
		poll.Options = make([]PollOption, len(p.Poll.Options))
		for i, o := range p.Poll.Options {
			o.Votes = cloneIDs(o.Votes)
			poll.Options[i] = o
		}
		p.Poll = &poll
	}
	return p
}

func cloneIDs(ids []ID) []ID {
	return append([]ID{}, ids...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
