package note

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no note with the ID exists for the owner.
var ErrNotFound = errors.New("medical note not found")

type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Record, int, error)
	ListEmergencyUnlockable(ctx context.Context, userID string) ([]*Record, error)

	// LockAllCiphertexts returns every note's ciphertext, locked for update
	// when called inside a transaction.
	LockAllCiphertexts(ctx context.Context) ([]Ciphertext, error)
	UpdateCiphertext(ctx context.Context, id uuid.UUID, encrypted string) error
}
