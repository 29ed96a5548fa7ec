// Package sessions keeps active simulation sessions between HTTP
// requests. Each session expires after a period of inactivity, and
// updates to one session run one at a time.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/kalike-app/kalike/internal/simulation"
)

var (
	ErrNotFound = errors.New("session not found or expired")
	ErrExists   = errors.New("session already exists")
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 30 * time.Minute

// UpdateFunc receives the current session and returns its replacement.
// Returning an error leaves the stored session untouched.
type UpdateFunc func(simulation.Session) (simulation.Session, error)

// Store holds sessions by ID.
type Store interface {
	Create(ctx context.Context, s simulation.Session) error
	Get(ctx context.Context, id string) (simulation.Session, error)

	// Update runs fn with exclusive access to the session and stores the
	// result, refreshing its TTL. The result is returned alongside fn's
	// error so callers can read the unchanged session on failure.
	Update(ctx context.Context, id string, fn UpdateFunc) (simulation.Session, error)

	Delete(ctx context.Context, id string) error

	// Sweep drops expired sessions and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}
