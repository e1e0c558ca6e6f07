package note

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diafit/diafit/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const noteCols = `id, user_id, title, encrypted_content, is_emergency_unlockable, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var n Record
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.EncryptedContent, &n.IsEmergencyUnlockable, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func collect(rows pgx.Rows) ([]*Record, error) {
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		n, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, n *Record) error {
	n.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_note (id, user_id, title, encrypted_content, is_emergency_unlockable)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		n.ID, n.UserID, n.Title, n.EncryptedContent, n.IsEmergencyUnlockable,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert medical note: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, userID string, id uuid.UUID) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+noteCols+` FROM medical_note WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r *repoPG) Update(ctx context.Context, n *Record) error {
	got, err := scanRecord(r.conn(ctx).QueryRow(ctx, `
		UPDATE medical_note SET title=$3, encrypted_content=$4, is_emergency_unlockable=$5, updated_at=NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+noteCols,
		n.ID, n.UserID, n.Title, n.EncryptedContent, n.IsEmergencyUnlockable))
	if err != nil {
		return err
	}
	*n = *got
	return nil
}

func (r *repoPG) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_note WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete medical note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_note WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count medical notes: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+noteCols+` FROM medical_note WHERE user_id = $1
		ORDER BY updated_at DESC, id DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list medical notes: %w", err)
	}
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) ListEmergencyUnlockable(ctx context.Context, userID string) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+noteCols+` FROM medical_note
		WHERE user_id = $1 AND is_emergency_unlockable
		ORDER BY updated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list emergency notes: %w", err)
	}
	return collect(rows)
}

func (r *repoPG) LockAllCiphertexts(ctx context.Context) ([]Ciphertext, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, encrypted_content FROM medical_note ORDER BY id FOR UPDATE`)
	if err != nil {
		return nil, fmt.Errorf("lock medical notes: %w", err)
	}
	defer rows.Close()

	var out []Ciphertext
	for rows.Next() {
		var c Ciphertext
		if err := rows.Scan(&c.ID, &c.EncryptedContent); err != nil {
			return nil, fmt.Errorf("scan ciphertext: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCiphertext keeps updated_at: a rekey is not an edit.
func (r *repoPG) UpdateCiphertext(ctx context.Context, id uuid.UUID, encrypted string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE medical_note SET encrypted_content = $2 WHERE id = $1`, id, encrypted)
	if err != nil {
		return fmt.Errorf("update ciphertext %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
