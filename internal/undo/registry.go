package undo

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultWindow is how long an undo stays available.
const DefaultWindow = 10 * time.Second

type entry struct {
	cmd     Command
	owner   string
	expires time.Time
}

// Registry hands out single-use tokens for pending undo commands.
type Registry struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]entry
}

func NewRegistry(window time.Duration) *Registry {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Registry{window: window, entries: map[string]entry{}}
}

// Put stores cmd for owner and returns its token.
func (r *Registry) Put(owner string, cmd Command, now time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep(now)
	token := uuid.NewString()
	r.entries[token] = entry{cmd: cmd, owner: owner, expires: now.Add(r.window)}
	return token
}

// Take removes and returns the command for token if it belongs to owner
// and has not expired.
func (r *Registry) Take(owner, token string, now time.Time) (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[token]
	if !ok || e.owner != owner {
		return nil, false
	}
	delete(r.entries, token)
	if now.After(e.expires) {
		return nil, false
	}
	return e.cmd, true
}

func (r *Registry) sweep(now time.Time) {
	for token, e := range r.entries {
		if now.After(e.expires) {
			delete(r.entries, token)
		}
	}
}
