package note

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/diafit/diafit/internal/platform/vault"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid medical note")

const maxTitleLength = 200

// VaultObserver counts vault calls; op is "encrypt" or "decrypt".
type VaultObserver interface {
	ObserveVault(op string, err error)
}

// TxFunc runs fn in one transaction. Repository calls made with the context
// handed to fn join it.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// Service stores note content encrypted and hands back plaintext to the
// owner. Ciphertext never leaves this layer.
type Service struct {
	repo Repository
	enc  vault.FieldEncryptor
	obs  VaultObserver
	inTx TxFunc
}

func NewService(repo Repository, enc vault.FieldEncryptor, obs VaultObserver, inTx TxFunc) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{repo: repo, enc: enc, obs: obs, inTx: inTx}
}

func (s *Service) encrypt(plaintext string) (string, error) {
	c, err := s.enc.Encrypt(plaintext)
	if s.obs != nil {
		s.obs.ObserveVault("encrypt", err)
	}
	return c, err
}

func (s *Service) decrypt(r *Record) (*Note, error) {
	p, err := s.enc.Decrypt(r.EncryptedContent)
	if s.obs != nil {
		s.obs.ObserveVault("decrypt", err)
	}
	if err != nil {
		return nil, fmt.Errorf("note %s: %w", r.ID, err)
	}
	return &Note{
		ID:                    r.ID,
		UserID:                r.UserID,
		Title:                 r.Title,
		Content:               p,
		IsEmergencyUnlockable: r.IsEmergencyUnlockable,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}, nil
}

func (s *Service) decryptAll(records []*Record) ([]*Note, error) {
	notes := make([]*Note, 0, len(records))
	for _, r := range records {
		n, err := s.decrypt(r)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func (s *Service) record(userID string, in Input) (*Record, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalid)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be at most %d characters", ErrInvalid, maxTitleLength)
	}
	if !utf8.ValidString(in.Content) {
		return nil, fmt.Errorf("%w: content must be valid UTF-8", ErrInvalid)
	}

	enc, err := s.encrypt(in.Content)
	if err != nil {
		return nil, fmt.Errorf("encrypt note: %w", err)
	}
	return &Record{
		UserID:                userID,
		Title:                 title,
		EncryptedContent:      enc,
		IsEmergencyUnlockable: in.IsEmergencyUnlockable,
	}, nil
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (*Note, error) {
	r, err := s.record(userID, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	return s.view(r, in.Content), nil
}

func (s *Service) Update(ctx context.Context, userID string, id uuid.UUID, in Input) (*Note, error) {
	r, err := s.record(userID, in)
	if err != nil {
		return nil, err
	}
	r.ID = id
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return s.view(r, in.Content), nil
}

// view builds the response for a write without a decrypt round trip.
func (s *Service) view(r *Record, content string) *Note {
	return &Note{
		ID:                    r.ID,
		UserID:                r.UserID,
		Title:                 r.Title,
		Content:               content,
		IsEmergencyUnlockable: r.IsEmergencyUnlockable,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*Note, error) {
	r, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.decrypt(r)
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*Note, int, error) {
	records, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	notes, err := s.decryptAll(records)
	if err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

func (s *Service) ListEmergencyUnlockable(ctx context.Context, userID string) ([]*Note, error) {
	records, err := s.repo.ListEmergencyUnlockable(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.decryptAll(records)
}

func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

// Rekey re-encrypts every stored note from one passphrase to another in a
// single transaction and returns the number of notes rewritten. Any note
// that does not decrypt under from aborts the whole run.
func (s *Service) Rekey(ctx context.Context, from, to vault.FieldEncryptor) (int, error) {
	count := 0
	err := s.inTx(ctx, func(ctx context.Context) error {
		rows, err := s.repo.LockAllCiphertexts(ctx)
		if err != nil {
			return err
		}
		for _, row := range rows {
			out, err := vault.Rekey(row.EncryptedContent, from, to)
			if err != nil {
				return fmt.Errorf("note %s: %w", row.ID, err)
			}
			if err := s.repo.UpdateCiphertext(ctx, row.ID, out); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
