package diet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no entry with the ID exists for the owner.
var ErrNotFound = errors.New("diet log entry not found")

// Repository methods are owner scoped: an entry belonging to another user is
// reported as ErrNotFound.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Entry, int, error)
	Summarize(ctx context.Context, userID string, since time.Time) (*Summary, error)
}
