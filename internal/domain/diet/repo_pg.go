package diet

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const entryCols = `id, user_id, food_name, meal_type, calories, carbohydrates_grams,
	protein_grams, fat_grams, suitability_result, notes, logged_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.FoodName, &e.MealType, &e.Calories, &e.CarbohydrateGrams,
		&e.ProteinGrams, &e.FatGrams, &e.SuitabilityResult, &e.Notes, &e.LoggedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO diet_log (id, user_id, food_name, meal_type, calories, carbohydrates_grams,
			protein_grams, fat_grams, suitability_result, notes, logged_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.UserID, e.FoodName, e.MealType, e.Calories, e.CarbohydrateGrams,
		e.ProteinGrams, e.FatGrams, e.SuitabilityResult, e.Notes, e.LoggedAt)
	if err != nil {
		return fmt.Errorf("insert diet log: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, userID string, id uuid.UUID) (*Entry, error) {
	return scanEntry(r.conn(ctx).QueryRow(ctx,
		`SELECT `+entryCols+` FROM diet_log WHERE id = $1 AND user_id = $2`, id, userID))
}

// Update leaves logged_at untouched; it records when the food was eaten.
func (r *repoPG) Update(ctx context.Context, e *Entry) error {
	return scanInto(e, r.conn(ctx).QueryRow(ctx, `
		UPDATE diet_log SET food_name=$3, meal_type=$4, calories=$5, carbohydrates_grams=$6,
			protein_grams=$7, fat_grams=$8, suitability_result=$9, notes=$10
		WHERE id = $1 AND user_id = $2
		RETURNING `+entryCols,
		e.ID, e.UserID, e.FoodName, e.MealType, e.Calories, e.CarbohydrateGrams,
		e.ProteinGrams, e.FatGrams, e.SuitabilityResult, e.Notes))
}

func scanInto(dst *Entry, row pgx.Row) error {
	got, err := scanEntry(row)
	if err != nil {
		return err
	}
	*dst = *got
	return nil
}

func (r *repoPG) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM diet_log WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete diet log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM diet_log WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count diet logs: %w", err)
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+entryCols+` FROM diet_log WHERE user_id = $1
		ORDER BY logged_at DESC, id DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list diet logs: %w", err)
	}
	defer rows.Close()

	items := make([]*Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Summarize(ctx context.Context, userID string, since time.Time) (*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT suitability_result, COUNT(*), COALESCE(SUM(calories), 0), COALESCE(SUM(carbohydrates_grams), 0)
		FROM diet_log WHERE user_id = $1 AND logged_at >= $2
		GROUP BY suitability_result`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("summarize diet logs: %w", err)
	}
	defer rows.Close()

	s := &Summary{Since: since, BySuitability: map[string]int{}}
	for rows.Next() {
		var (
			result   string
			count    int
			calories float64
			carbs    float64
		)
		if err := rows.Scan(&result, &count, &calories, &carbs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.BySuitability[result] = count
		s.Total += count
		s.TotalCalories += calories
		s.TotalCarbGrams += carbs
	}
	return s, rows.Err()
}
