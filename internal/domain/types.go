package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Nutrition holds macro values already scaled to a portion.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"proteinGrams"`
	Carbs    float64 `json:"carbsGrams"`
	Fat      float64 `json:"fatGrams"`
}

func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}

func (n Nutrition) Scale(ratio float64) Nutrition {
	return Nutrition{
		Calories: n.Calories * ratio,
		Protein:  n.Protein * ratio,
		Carbs:    n.Carbs * ratio,
		Fat:      n.Fat * ratio,
	}
}

// Validate rejects negative or non-finite values.
func (n Nutrition) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"nutrition.calories", n.Calories},
		{"nutrition.proteinGrams", n.Protein},
		{"nutrition.carbsGrams", n.Carbs},
		{"nutrition.fatGrams", n.Fat},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return &ValidationError{Field: f.name, Message: "must be a finite non-negative number"}
		}
	}
	return nil
}

// FoodItem is the canonical representation of a recognized or manually
// entered food. A WeightGrams of 0 means the portion is unknown, not a
// zero-gram food.
type FoodItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	WeightGrams float64   `json:"weightGrams"`
	Nutrition   Nutrition `json:"nutrition"`
	Incomplete  bool      `json:"incomplete,omitempty"`
}

// UnknownPortion reports whether the item carries no usable weight.
func (f FoodItem) UnknownPortion() bool {
	return f.WeightGrams <= 0
}

// Rescale returns a copy of f with its weight set to grams and all four
// nutrition fields scaled by the same ratio.
func (f FoodItem) Rescale(grams float64) (FoodItem, error) {
	if math.IsNaN(grams) || math.IsInf(grams, 0) || grams <= 0 {
		return FoodItem{}, &ValidationError{Field: "weightGrams", Message: "must be a positive number"}
	}
	if f.UnknownPortion() {
		return FoodItem{}, &ValidationError{Field: "weightGrams", Message: "item has no known portion to scale from"}
	}
	out := f
	out.Nutrition = f.Nutrition.Scale(grams / f.WeightGrams)
	out.WeightGrams = grams
	return out, nil
}

func (f FoodItem) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	if math.IsNaN(f.WeightGrams) || math.IsInf(f.WeightGrams, 0) || f.WeightGrams < 0 {
		return &ValidationError{Field: "weightGrams", Message: "must be a finite non-negative number"}
	}
	return f.Nutrition.Validate()
}

// MealSlot is one of the fixed partitions of a day.
type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
)

var MealSlots = []MealSlot{Breakfast, Lunch, Dinner}

// ParseMealSlot accepts a slot name case-insensitively.
func ParseMealSlot(s string) (MealSlot, error) {
	switch MealSlot(strings.ToLower(strings.TrimSpace(s))) {
	case Breakfast:
		return Breakfast, nil
	case Lunch:
		return Lunch, nil
	case Dinner:
		return Dinner, nil
	}
	return "", &ValidationError{Field: "slot", Message: fmt.Sprintf("unknown meal slot %q, use breakfast, lunch or dinner", s)}
}

// HistoryEntry is a logged meal. It is never mutated after creation.
type HistoryEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	MealName    string    `json:"mealName"`
	Nutrition   Nutrition `json:"nutrition"`
	WeightGrams float64   `json:"weightGrams"`
	Timestamp   time.Time `json:"timestamp"`
	ImageKey    string    `json:"-"`
	ImageMIME   string    `json:"imageContentType,omitempty"`
}

func (h *HistoryEntry) HasImage() bool {
	return h.ImageKey != ""
}

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Profile      NutritionProfile
	Targets      CalorieTargets
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
