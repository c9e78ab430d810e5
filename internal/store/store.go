// Package store owns the live document: it loads it from a backend once,
// serializes every mutation and persists each new version whole.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/AlexTLDR/flok/internal/apperr"
	"github.com/AlexTLDR/flok/internal/document"
	"github.com/AlexTLDR/flok/internal/notify"
	"github.com/AlexTLDR/flok/internal/undo"
)

// ErrNotFound is returned by a Backend that has nothing stored under a key.
var ErrNotFound = errors.New("document not found")

// Backend persists the serialized document under a single key.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// MutateFunc is an engine call. Returning the same pointer means nothing
// changed.
type MutateFunc func(doc *document.Document) (*document.Document, error)

type Store struct {
	mu      sync.Mutex
	backend Backend
	key     string
	doc     *document.Document
	alerter notify.Alerter
	now     func() time.Time

	// loaded is false while the backend could not be read. Nothing is
	// saved until a later load succeeds.
	loaded      bool
	loadRetries uint64
	loadBackoff time.Duration
}

type Option func(*Store)

// Status describes the store for health checks.
type Status struct {
	Loaded  bool       `json:"loaded"`
	SavedAt *time.Time `json:"savedAt,omitempty"`
}

// Stamper is implemented by backends that record when a key was last
// written.
type Stamper interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

// WithAlerter replaces the default log alerter.
func WithAlerter(a notify.Alerter) Option {
	return func(s *Store) { s.alerter = a }
}

// WithClock sets the clock used for migration and undo expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLoadRetry sets how many times a failing backend read is retried
// when the store opens.
func WithLoadRetry(retries uint64, backoff time.Duration) Option {
	return func(s *Store) {
		s.loadRetries = retries
		s.loadBackoff = backoff
	}
}

// Open loads the document stored under key. It never fails: a missing or
// corrupt document is replaced by an empty one. When the backend stays
// unreadable after the retries, the store serves an empty document and
// refuses writes until a later Update manages to read the stored one.
func Open(ctx context.Context, backend Backend, key string, opts ...Option) *Store {
	if key == "" {
		key = document.StorageKey
	}
	s := &Store{
		backend:     backend,
		key:         key,
		alerter:     notify.LogAlerter{},
		now:         time.Now,
		loadRetries: 3,
		loadBackoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	backoff := retry.WithMaxRetries(s.loadRetries, retry.NewExponential(max(s.loadBackoff, time.Millisecond)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		doc, err := s.load(ctx)
		if err != nil {
			log.Printf("Failed to read document %q: %v", s.key, err)
			return retry.RetryableError(err)
		}
		s.doc = doc
		return nil
	})
	if err != nil {
		log.Printf("Document %q is unreadable, serving an empty one without saving", s.key)
		s.doc = document.New()
		return s
	}
	s.loaded = true
	return s
}

// load reads the stored document. Only a backend read error is returned;
// a missing or corrupt document is reset.
func (s *Store) load(ctx context.Context) (*document.Document, error) {
	data, err := s.backend.Load(ctx, s.key)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Printf("No stored document under %q, starting empty", s.key)
		return s.reset(ctx), nil
	case err != nil:
		return nil, err
	}

	doc, err := document.Decode(data, s.now())
	if err != nil {
		log.Printf("Stored document %q is unusable, resetting: %v", s.key, err)
		return s.reset(ctx), nil
	}

	upgraded, err := document.Encode(doc)
	if err == nil && !bytes.Equal(upgraded, data) {
		if err := s.backend.Save(ctx, s.key, upgraded); err != nil {
			log.Printf("Failed to persist migrated document: %v", err)
		}
	}
	return doc, nil
}

func (s *Store) reset(ctx context.Context) *document.Document {
	doc := document.New()
	if data, err := document.Encode(doc); err == nil {
		if err := s.backend.Save(ctx, s.key, data); err != nil {
			log.Printf("Failed to persist empty document: %v", err)
		}
	}
	return doc
}

// Current returns the live document. Engines never mutate their input, so
// the value may be read freely but must not be modified.
func (s *Store) Current() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Status reports whether the stored document was read and, when the
// backend records it, when it was last saved.
func (s *Store) Status(ctx context.Context) Status {
	s.mu.Lock()
	st := Status{Loaded: s.loaded}
	s.mu.Unlock()

	if stamper, ok := s.backend.(Stamper); ok {
		if at, err := stamper.UpdatedAt(ctx, s.key); err == nil {
			st.SavedAt = &at
		}
	}
	return st
}

// Now is the store's clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// Update runs fn against the live document. A new document is persisted
// and published only when fn succeeds and returns a different value; on any
// error the live document is left as it was.
func (s *Store) Update(ctx context.Context, fn MutateFunc) (*document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		doc, err := s.load(ctx)
		if err != nil {
			return s.doc, fmt.Errorf("failed to read document before writing: %w", err)
		}
		log.Printf("Document %q is readable again", s.key)
		s.doc = doc
		s.loaded = true
	}

	before := s.doc
	next, err := fn(before)
	if err != nil {
		return before, err
	}
	if next == nil || next == before {
		return before, nil
	}

	data, err := document.Encode(next)
	if err != nil {
		return before, err
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		return before, fmt.Errorf("failed to save document: %w", err)
	}
	s.doc = next
	notify.Dispatch(s.alerter, before, next)
	return next, nil
}

// Undo applies the command registered under token for owner, once.
func (s *Store) Undo(ctx context.Context, reg *undo.Registry, owner, token string) (*document.Document, error) {
	cmd, ok := reg.Take(owner, token, s.now())
	if !ok {
		return s.Current(), apperr.Policy(apperr.CodeUndoUnavailable, "nothing to undo")
	}
	return s.Update(ctx, func(doc *document.Document) (*document.Document, error) {
		return cmd.Apply(doc), nil
	})
}

// Sweep reruns normalization on the live document so events crossing the
// archive horizon are archived without a restart.
func (s *Store) Sweep(ctx context.Context) error {
	_, err := s.Update(ctx, func(doc *document.Document) (*document.Document, error) {
		before, err := document.Encode(doc)
		if err != nil {
			return doc, err
		}
		next := doc.Clone()
		document.Normalize(next, s.now())
		after, err := document.Encode(next)
		if err != nil {
			return doc, err
		}
		if bytes.Equal(before, after) {
			return doc, nil
		}
		return next, nil
	})
	return err
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				log.Printf("Archive sweep failed: %v", err)
			}
		}
	}
}
