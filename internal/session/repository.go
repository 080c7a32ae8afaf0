package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Repository keeps sessions in memory. All mutations go through Update, which
// serializes them so each session sees one action at a time.
type Repository struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewRepository creates a Repository whose sessions live for ttl after their
// last use. Dates are computed in loc.
func NewRepository(ttl time.Duration, loc *time.Location) *Repository {
	if loc == nil {
		loc = time.Local
	}
	return &Repository{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		loc:      loc,
		now:      time.Now,
	}
}

// Location returns the time zone used for calendar days.
func (r *Repository) Location() *time.Location {
	return r.loc
}

// Now returns the current time in the repository's location.
func (r *Repository) Now() time.Time {
	return r.now().In(r.loc)
}

// Create starts a new session with a random id.
func (r *Repository) Create(ctx context.Context) (Session, error) {
	return r.create(ctx, uuid.NewString())
}

func (r *Repository) create(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s := New(id, r.Now(), r.ttl)
	r.sessions[id] = s
	return s.Snapshot(), nil
}

// Guest returns a fresh logged-out session that is not stored.
func (r *Repository) Guest() Session {
	return New("", r.Now(), r.ttl).Snapshot()
}

// GetActive returns a snapshot of a non-expired session and extends its lifetime.
func (r *Repository) GetActive(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(id)
	if err != nil {
		return Session{}, err
	}
	return s.Snapshot(), nil
}

// GetOrCreate returns the session with id, creating it under that id when it
// does not exist or has expired. Used by front ends with stable ids.
func (r *Repository) GetOrCreate(ctx context.Context, id string) (Session, bool, error) {
	snap, err := r.GetActive(ctx, id)
	if err == nil {
		return snap, false, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return Session{}, false, err
	}
	snap, err = r.create(ctx, id)
	return snap, err == nil, err
}

// Update runs fn on the session while holding the repository lock and returns
// a snapshot taken after fn. fn must leave the session unchanged when it fails.
func (r *Repository) Update(ctx context.Context, id string, fn func(*Session) error) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(id)
	if err != nil {
		return Session{}, err
	}
	if err := fn(s); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

// Delete removes a session.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// CleanupExpired removes all expired sessions and reports how many were dropped.
func (r *Repository) CleanupExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, s := range r.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// lookup must be called with r.mu held.
func (r *Repository) lookup(id string) (*Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	now := r.now()
	if !now.Before(s.ExpiresAt) {
		delete(r.sessions, id)
		return nil, fmt.Errorf("%w: %s expired", ErrSessionNotFound, id)
	}
	s.ExpiresAt = now.Add(r.ttl)
	return s, nil
}
