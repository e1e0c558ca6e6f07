package diet

import (
	"time"

	"github.com/google/uuid"

	"github.com/diafit/diafit/internal/domain/food"
)

type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
	Snack     MealType = "Snack"
)

func (m MealType) Valid() bool {
	switch m {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

// SuitabilityUnknown marks an entry that has not been classified yet.
const SuitabilityUnknown = "Unknown"

// Entry is one logged food. SuitabilityResult holds a food.Suitability value
// or SuitabilityUnknown.
type Entry struct {
	ID                uuid.UUID `json:"id"`
	UserID            string    `json:"user_id"`
	FoodName          string    `json:"food_name"`
	MealType          MealType  `json:"meal_type"`
	Calories          float64   `json:"calories"`
	CarbohydrateGrams float64   `json:"carbohydrates_grams"`
	ProteinGrams      float64   `json:"protein_grams"`
	FatGrams          float64   `json:"fat_grams"`
	SuitabilityResult string    `json:"suitability_result"`
	Notes             *string   `json:"notes,omitempty"`
	LoggedAt          time.Time `json:"logged_at"`
}

// Sample returns the nutrient view of the entry fed to the classifier.
func (e *Entry) Sample() food.Sample {
	return food.Sample{
		Name:              e.FoodName,
		Calories:          e.Calories,
		CarbohydrateGrams: e.CarbohydrateGrams,
		ProteinGrams:      e.ProteinGrams,
		FatGrams:          e.FatGrams,
	}
}

// Analyzed is returned from create and update: the stored entry and the full
// verdict that produced its suitability.
type Analyzed struct {
	Entry    *Entry       `json:"entry"`
	Analysis food.Verdict `json:"analysis"`
}

// Summary counts a user's entries per suitability over a window.
type Summary struct {
	Since          time.Time      `json:"since"`
	Total          int            `json:"total"`
	BySuitability  map[string]int `json:"by_suitability"`
	TotalCalories  float64        `json:"total_calories"`
	TotalCarbGrams float64        `json:"total_carbohydrates_grams"`
}
