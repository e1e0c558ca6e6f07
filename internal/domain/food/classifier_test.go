package food

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"
)

func TestAnalyze_Examples(t *testing.T) {
	cases := []struct {
		name   string
		sample Sample
		want   Suitability
	}{
		{"sugar", Sample{Name: "Sugar", Calories: 400, CarbohydrateGrams: 100}, NotRecommended},
		{"grilled chicken", Sample{Name: "Grilled Chicken", Calories: 200, ProteinGrams: 35, FatGrams: 5}, Suitable},
		{"brown rice", Sample{Name: "Brown Rice", Calories: 220, CarbohydrateGrams: 45, ProteinGrams: 5, FatGrams: 2}, Limited},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := Analyze(tc.sample)
			if v.Suitability != tc.want {
				t.Errorf("expected %s, got %s", tc.want, v.Suitability)
			}
			if v.FoodName != tc.sample.Name {
				t.Errorf("expected food name %q, got %q", tc.sample.Name, v.FoodName)
			}
			if v.Reason == "" || v.Tip == "" {
				t.Error("expected non-empty reason and tip")
			}
		})
	}
}

func TestGlycemicScore(t *testing.T) {
	cases := []struct {
		name   string
		sample Sample
		want   float64
	}{
		{"zero", Sample{}, 0},
		{"carbs and calories", Sample{CarbohydrateGrams: 100, Calories: 400}, 80},
		{"protein heavy clamps to zero", Sample{Calories: 200, ProteinGrams: 35, FatGrams: 5}, 0},
		{"brown rice", Sample{Calories: 220, CarbohydrateGrams: 45, ProteinGrams: 5, FatGrams: 2}, 36.3},
		{"huge carbs clamps to 100", Sample{CarbohydrateGrams: 1e9}, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GlycemicScore(tc.sample)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestGlycemicScore_AlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	extremes := []float64{0, 1e-300, 1, 40, 70, 1e6, 1e300, math.MaxFloat64, math.Inf(1), -1, -1e300, math.Inf(-1), math.NaN()}

	pick := func() float64 {
		if rng.Intn(3) == 0 {
			return extremes[rng.Intn(len(extremes))]
		}
		return rng.Float64() * math.Pow(10, float64(rng.Intn(12)))
	}

	for i := 0; i < 10000; i++ {
		s := Sample{
			Name:              "unlabelled",
			Calories:          pick(),
			CarbohydrateGrams: pick(),
			ProteinGrams:      pick(),
			FatGrams:          pick(),
		}
		score := GlycemicScore(s)
		if math.IsNaN(score) || score < 0 || score > 100 {
			t.Fatalf("score %v out of range for %+v", score, s)
		}
		v := Analyze(s)
		if !v.Suitability.Valid() {
			t.Fatalf("invalid suitability %q for %+v", v.Suitability, s)
		}
	}
}

func TestAnalyze_KeywordPriority(t *testing.T) {
	cases := []struct {
		name string
		want Suitability
	}{
		{"Chocolate Covered Almonds", NotRecommended},
		{"Salad with Honey Dressing", NotRecommended},
		{"Fruit Juice", NotRecommended},
		{"Banana Pancake", NotRecommended},
		{"Spinach and Potato Curry", Limited},
		{"Yogurt with Berries", Limited},
		{"Salmon Fillet", Suitable},
		{"BROCCOLI", Suitable},
		{"Eggplant", Suitable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Nutrients that would score NotRecommended on their own.
			v := Analyze(Sample{Name: tc.name, CarbohydrateGrams: 200})
			if v.Suitability != tc.want {
				t.Errorf("expected %s, got %s", tc.want, v.Suitability)
			}
		})
	}
}

func TestMatchKeyword_NoMatch(t *testing.T) {
	if s, ok := MatchKeyword("Mystery Stew"); ok {
		t.Fatalf("expected no keyword match, got %s", s)
	}
}

func TestFromScore_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  Suitability
	}{
		{0, Suitable},
		{40, Suitable},
		{math.Nextafter(40, 41), Limited},
		{70, Limited},
		{math.Nextafter(70, 71), NotRecommended},
		{100, NotRecommended},
	}
	for _, tc := range cases {
		if got := FromScore(tc.score); got != tc.want {
			t.Errorf("FromScore(%v): expected %s, got %s", tc.score, tc.want, got)
		}
	}
}

func TestAnalyze_ScoreFallbackBoundaries(t *testing.T) {
	// 800 kcal scores exactly 40, 1400 kcal exactly 70.
	at40 := Analyze(Sample{Name: "Mystery Stew", Calories: 800})
	if at40.GlycemicScore != 40 {
		t.Fatalf("expected score 40, got %v", at40.GlycemicScore)
	}
	if at40.Suitability != Suitable {
		t.Errorf("score 40: expected Suitable, got %s", at40.Suitability)
	}

	at70 := Analyze(Sample{Name: "Mystery Stew", Calories: 1400})
	if at70.GlycemicScore != 70 {
		t.Fatalf("expected score 70, got %v", at70.GlycemicScore)
	}
	if at70.Suitability != Limited {
		t.Errorf("score 70: expected Limited, got %s", at70.Suitability)
	}

	high := Analyze(Sample{Name: "Mystery Stew", CarbohydrateGrams: 150})
	if high.Suitability != NotRecommended {
		t.Errorf("score 90: expected NotRecommended, got %s", high.Suitability)
	}
}

func TestWarnings(t *testing.T) {
	cases := []struct {
		name   string
		sample Sample
		want   []string
	}{
		{"none", Sample{CarbohydrateGrams: 60, Calories: 600, FatGrams: 30}, []string{}},
		{"carb only", Sample{CarbohydrateGrams: 80, Calories: 100, FatGrams: 5}, []string{WarningHighCarb}},
		{"calorie then fat", Sample{CarbohydrateGrams: 10, Calories: 700, FatGrams: 40}, []string{WarningHighCalorie, WarningHighFat}},
		{"all three", Sample{CarbohydrateGrams: 61, Calories: 601, FatGrams: 31}, []string{WarningHighCarb, WarningHighCalorie, WarningHighFat}},
		{"fat only", Sample{FatGrams: 30.5}, []string{WarningHighFat}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.sample.Name = "Mystery Stew"
			got := Analyze(tc.sample).Warnings
			if got == nil {
				t.Fatal("expected non-nil warnings")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d warnings, got %d: %v", len(tc.want), len(got), got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("warning %d: expected %q, got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestReasonAndTip_Deterministic(t *testing.T) {
	for _, s := range []Suitability{Suitable, Limited, NotRecommended} {
		r1, r2 := Reason("Oats", s), Reason("Oats", s)
		if r1 != r2 {
			t.Errorf("%s: reason not deterministic", s)
		}
		if !strings.HasPrefix(r1, "Oats ") {
			t.Errorf("%s: expected reason to start with the food name, got %q", s, r1)
		}
		if Tip(s) == "" {
			t.Errorf("%s: expected a tip", s)
		}
	}

	if Reason("Oats", Suitable) == Reason("Oats", Limited) {
		t.Error("expected distinct reasons per verdict")
	}
	if Reason("100% Rye", NotRecommended) != "100% Rye has a high glycemic impact and is not recommended for diabetics." {
		t.Errorf("unexpected reason %q", Reason("100% Rye", NotRecommended))
	}
}

func TestAnalyze_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := Analyze(Sample{Name: "Sugar Cookie", CarbohydrateGrams: 30})
			if v.Suitability != NotRecommended {
				t.Errorf("expected NotRecommended, got %s", v.Suitability)
			}
		}()
	}
	wg.Wait()
}

func TestSample_Validate(t *testing.T) {
	if err := (Sample{Name: "  "}).Validate(); err != ErrNameRequired {
		t.Errorf("expected ErrNameRequired, got %v", err)
	}
	if err := (Sample{Name: "Oats", FatGrams: -1}).Validate(); err == nil {
		t.Error("expected error for negative fat")
	}
	if err := (Sample{Name: "Oats"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if got := (Sample{Name: "  Oats \n"}).Normalize().Name; got != "Oats" {
		t.Errorf("expected trimmed name, got %q", got)
	}
}
