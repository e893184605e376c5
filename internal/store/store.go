// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/softsell/internal/domain"
)

// Repository defines the interface for persisting visitors and their
// preferences.
type Repository interface {
	// GetVisitor retrieves a visitor by ID. It returns nil, nil when the
	// visitor does not exist.
	GetVisitor(ctx context.Context, visitorID string) (*domain.Visitor, error)

	// UpsertVisitor creates or updates a visitor record.
	UpsertVisitor(ctx context.Context, visitor *domain.Visitor) error

	// UpdateLastSeen updates the last_seen_at timestamp for a visitor.
	UpdateLastSeen(ctx context.Context, visitorID string, lastSeen time.Time) error

	// DeleteStaleVisitors removes visitors (and their preferences) not seen
	// within ttl.
	DeleteStaleVisitors(ctx context.Context, ttl time.Duration) (int64, error)

	// GetPreference returns a stored preference value and whether it exists.
	GetPreference(ctx context.Context, visitorID, key string) (string, bool, error)

	// SetPreference stores a preference value.
	SetPreference(ctx context.Context, visitorID, key, value string) error

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
