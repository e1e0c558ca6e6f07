package diet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diafit/diafit/internal/domain/food"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid diet log entry")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Service owns diet log validation and classifies every entry it stores.
type Service struct {
	repo Repository
	obs  food.VerdictObserver
	now  func() time.Time
}

func NewService(repo Repository, obs food.VerdictObserver) *Service {
	return &Service{repo: repo, obs: obs, now: time.Now}
}

func (s *Service) prepare(e *Entry) (food.Verdict, error) {
	if e.UserID == "" {
		return food.Verdict{}, invalid("user_id is required")
	}
	e.FoodName = strings.TrimSpace(e.FoodName)
	if e.MealType == "" {
		e.MealType = Lunch
	}
	if !e.MealType.Valid() {
		return food.Verdict{}, invalid("meal_type must be one of Breakfast, Lunch, Dinner, Snack")
	}
	sample := e.Sample()
	if err := sample.Validate(); err != nil {
		return food.Verdict{}, invalid("%s", err)
	}

	v := food.Analyze(sample)
	e.SuitabilityResult = string(v.Suitability)
	if s.obs != nil {
		s.obs.ObserveVerdict(e.SuitabilityResult)
	}
	return v, nil
}

func (s *Service) Create(ctx context.Context, e *Entry) (*Analyzed, error) {
	v, err := s.prepare(e)
	if err != nil {
		return nil, err
	}
	if e.LoggedAt.IsZero() {
		e.LoggedAt = s.now().UTC()
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return &Analyzed{Entry: e, Analysis: v}, nil
}

func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (*Entry, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Update replaces the editable fields and reclassifies. A client-supplied
// suitability_result is ignored.
func (s *Service) Update(ctx context.Context, e *Entry) (*Analyzed, error) {
	v, err := s.prepare(e)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return &Analyzed{Entry: e, Analysis: v}, nil
}

func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*Entry, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// MaxSummaryDays bounds the summary window.
const MaxSummaryDays = 90

// Summarize aggregates the last days days of entries, days in [1, MaxSummaryDays].
func (s *Service) Summarize(ctx context.Context, userID string, days int) (*Summary, error) {
	if days < 1 || days > MaxSummaryDays {
		return nil, invalid("days must be between 1 and %d", MaxSummaryDays)
	}
	since := s.now().UTC().AddDate(0, 0, -days)
	return s.repo.Summarize(ctx, userID, since)
}
