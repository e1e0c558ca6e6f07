package food

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNameRequired is returned by Validate for a blank food name.
var ErrNameRequired = errors.New("food name is required")

// Normalize trims surrounding whitespace from the name.
func (s Sample) Normalize() Sample {
	s.Name = strings.TrimSpace(s.Name)
	return s
}

// Validate is the boundary check run before Analyze.
func (s Sample) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrNameRequired
	}
	for _, n := range []struct {
		field string
		value float64
	}{
		{"calories", s.Calories},
		{"carbohydrates_grams", s.CarbohydrateGrams},
		{"protein_grams", s.ProteinGrams},
		{"fat_grams", s.FatGrams},
	} {
		if n.value < 0 {
			return fmt.Errorf("%s must not be negative", n.field)
		}
	}
	return nil
}
