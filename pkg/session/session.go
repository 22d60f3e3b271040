// Package session stores per-browser navigation state.
//
// Every browser session owns one navigation state, created from the full
// graph on first contact and dropped when the session expires. This package
// defines the storage interface with implementations for different backends:
//   - memory: In-memory storage for single-instance deployments (default)
//   - file: JSON files on disk, surviving restarts
//   - redis: Redis-backed storage for multi-instance deployments
//   - mongo: MongoDB-backed storage for multi-instance deployments
//
// # Architecture
//
// Sessions carry an expiry that slides forward on every event. The Store
// interface supports:
//   - Get/Set/Delete operations
//   - Automatic expiration checking
//   - Cleanup of expired sessions
//
// Stores do not serialize writers. The HTTP server guarantees that at most
// one event per session is processed at a time.
//
// # Usage
//
// Open the configured store:
//
//	store, err := session.Open(ctx, session.Options{
//	    Backend:   session.BackendRedis,
//	    RedisAddr: "localhost:6379",
//	})
//
// Manage sessions:
//
//	sess := session.New(nav.Init(), session.DefaultTTL)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err := store.Get(ctx, sessionID)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // Session not found or expired
//	}
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowguide/pkg/navigate"
)

// Session stores the navigation state of one browser session.
type Session struct {
	ID        string         `json:"id" bson:"_id"`
	State     navigate.State `json:"state" bson:"state"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time      `json:"expires_at" bson:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch extends the session's expiry to ttl from now.
func (s *Session) Touch(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.State = s.State.Clone()
	return &out
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session, replacing any previous version.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions (may be a no-op for backends with
	// native expiry).
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// GenerateID creates a random session ID.
func GenerateID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape of a generated session ID.
// Cookies carrying anything else are ignored.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// New creates a session holding state.
func New(state navigate.State, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        GenerateID(),
		State:     state,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}
