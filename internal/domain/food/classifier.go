package food

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Keyword tables, checked in this order. The first table with a keyword that
// is a substring of the lowercased food name decides the verdict.
var (
	notRecommendedKeywords = []string{
		"sugar", "candy", "soda", "juice", "cake", "cookie", "donut", "white bread",
		"white rice", "chips", "ice cream", "chocolate", "pizza", "french fries",
		"burger", "waffle", "pancake", "syrup", "honey", "jam", "jelly",
	}

	limitedKeywords = []string{
		"banana", "mango", "grape", "potato", "corn", "pasta", "oats",
		"whole wheat bread", "brown rice", "fruit", "milk", "yogurt", "carrot",
	}

	suitableKeywords = []string{
		"salad", "broccoli", "spinach", "egg", "chicken", "fish", "salmon",
		"tofu", "lentils", "beans", "nuts", "almonds", "avocado", "cucumber",
		"tomato", "cabbage", "cauliflower", "mushroom", "apple", "berries",
	}

	keywordTiers = []struct {
		suitability Suitability
		keywords    []string
	}{
		{NotRecommended, notRecommendedKeywords},
		{Limited, limitedKeywords},
		{Suitable, suitableKeywords},
	}
)

// Score weights and thresholds.
const (
	carbWeight     = 0.6
	calorieWeight  = 0.05
	proteinBenefit = 0.3
	fatBenefit     = 0.1

	maxScore = 100.0

	notRecommendedAbove = 70.0
	limitedAbove        = 40.0

	highCarbGrams = 60.0
	highCalories  = 600.0
	highFatGrams  = 30.0
)

const (
	WarningHighCarb    = "High carbohydrate content: may spike blood sugar."
	WarningHighCalorie = "High calorie density: consider a smaller portion."
	WarningHighFat     = "High fat content: monitor insulin response."
)

var reasonTemplates = map[Suitability]string{
	Suitable:       "%s has a low glycemic impact and is generally safe for diabetics.",
	Limited:        "%s can raise blood sugar moderately, consume in small portions.",
	NotRecommended: "%s has a high glycemic impact and is not recommended for diabetics.",
}

var tips = map[Suitability]string{
	Suitable:       "Go ahead: pair with protein for balanced nutrition.",
	Limited:        "Limit to half portion and monitor your blood sugar afterwards.",
	NotRecommended: "Avoid or replace with a low-GI alternative.",
}

// Analyze classifies s. It never fails: out-of-range nutrient values are
// clamped into the score range rather than rejected. Callers reject blank
// names before calling.
func Analyze(s Sample) Verdict {
	score := GlycemicScore(s)

	suitability, matched := MatchKeyword(s.Name)
	if !matched {
		suitability = FromScore(score)
	}

	return Verdict{
		FoodName:      s.Name,
		Suitability:   suitability,
		Reason:        Reason(s.Name, suitability),
		Tip:           Tip(suitability),
		GlycemicScore: score,
		Warnings:      Warnings(s),
	}
}

// GlycemicScore is the clamped linear estimate of blood-sugar impact. NaN
// inputs score zero.
func GlycemicScore(s Sample) float64 {
	score := s.CarbohydrateGrams*carbWeight +
		s.Calories*calorieWeight -
		s.ProteinGrams*proteinBenefit -
		s.FatGrams*fatBenefit
	return clamp(score, 0, maxScore)
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// MatchKeyword returns the verdict of the first keyword tier that matches
// name, and false when no tier matches.
func MatchKeyword(name string) (Suitability, bool) {
	lower := cases.Lower(language.Und).String(name)
	for _, tier := range keywordTiers {
		for _, kw := range tier.keywords {
			if strings.Contains(lower, kw) {
				return tier.suitability, true
			}
		}
	}
	return "", false
}

// FromScore maps a glycemic score to a verdict: above 70 is NotRecommended,
// above 40 up to and including 70 is Limited, 40 and below is Suitable.
func FromScore(score float64) Suitability {
	switch {
	case score > notRecommendedAbove:
		return NotRecommended
	case score > limitedAbove:
		return Limited
	default:
		return Suitable
	}
}

// Warnings returns the nutrient warnings for s in carbohydrate, calorie, fat
// order. The result is never nil.
func Warnings(s Sample) []string {
	warnings := make([]string, 0, 3)
	if s.CarbohydrateGrams > highCarbGrams {
		warnings = append(warnings, WarningHighCarb)
	}
	if s.Calories > highCalories {
		warnings = append(warnings, WarningHighCalorie)
	}
	if s.FatGrams > highFatGrams {
		warnings = append(warnings, WarningHighFat)
	}
	return warnings
}

// Reason renders the reasoning sentence for a verdict.
func Reason(name string, s Suitability) string {
	tmpl, ok := reasonTemplates[s]
	if !ok {
		return "Unable to determine suitability."
	}
	return fmt.Sprintf(tmpl, name)
}

// Tip returns the advice line for a verdict.
func Tip(s Suitability) string {
	return tips[s]
}
