package food

// Suitability is the three-way verdict assigned to a food.
type Suitability string

const (
	Suitable       Suitability = "Suitable"
	Limited        Suitability = "Limited"
	NotRecommended Suitability = "NotRecommended"
)

// Valid reports whether s is one of the three verdict values.
func (s Suitability) Valid() bool {
	switch s {
	case Suitable, Limited, NotRecommended:
		return true
	}
	return false
}

// Sample describes one food to classify. Nutrients absent from a request
// decode as zero.
type Sample struct {
	Name              string  `json:"food_name"`
	Calories          float64 `json:"calories"`
	CarbohydrateGrams float64 `json:"carbohydrates_grams"`
	ProteinGrams      float64 `json:"protein_grams"`
	FatGrams          float64 `json:"fat_grams"`
}

// Verdict is the classifier output. GlycemicScore is always within [0, 100];
// lower is better.
type Verdict struct {
	FoodName      string      `json:"food_name"`
	Suitability   Suitability `json:"suitability"`
	Reason        string      `json:"reason"`
	Tip           string      `json:"tip"`
	GlycemicScore float64     `json:"glycemic_score"`
	Warnings      []string    `json:"warnings"`
}
