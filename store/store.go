// store/store.go
package store

import (
	"context"
	"errors"

	"github.com/wfunc/battleship/models"
)

// ErrNotFound is returned when no record exists under the requested id.
var ErrNotFound = errors.New("record not found")

// Entity is a record addressable by a stable key.
type Entity interface {
	Key() string
}

// Table is one collection of records. Implementations are safe for
// concurrent use, but sequences of calls are not atomic; callers that do
// check-then-act must serialize themselves.
type Table[T Entity] interface {
	Get(ctx context.Context, id string) (T, error)
	Put(ctx context.Context, v T) error
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context, match func(T) bool) ([]T, error)
	Count(ctx context.Context) (int, error)
}

// Store holds every collection the game server owns.
type Store struct {
	Players Table[*models.Player]
	Rooms   Table[*models.Room]
	Games   Table[*models.Game]

	closer func() error
}

// Close releases backend resources.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// All is a FindAll predicate matching every record.
func All[T any](T) bool { return true }
