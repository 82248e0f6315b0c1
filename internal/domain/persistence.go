package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrDuplicatePackage indicates a catalog save collided with an existing
// package identifier within the same course.
var ErrDuplicatePackage = errors.New("package already catalogued for course")

// ErrNotFound reports a missing record by entity and id.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Catalog persists package metadata. Save is expected to be called only after
// extraction succeeded; implementations must reject duplicate (course,
// identifier) pairs with ErrDuplicatePackage instead of overwriting.
type Catalog interface {
	SavePackage(ctx context.Context, record PackageRecord) (string, error)
	GetPackage(ctx context.Context, id string) (PackageRecord, bool, error)
	DeletePackage(ctx context.Context, id string) (bool, error)
}

// SessionStore persists runtime session snapshots keyed by session id.
// PutSession is an upsert; deleting a package never removes session history.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (SessionSnapshot, bool, error)
	PutSession(ctx context.Context, snapshot SessionSnapshot) error
}

// Store is the combined durable backend used by the service wiring.
type Store interface {
	Catalog
	SessionStore
}

// Logger is the minimal structured logging surface services depend on.
// slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger discards all log output. It is the default for services
// constructed without WithLogger-style options.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
