// Package ledger holds one user's meals for one calendar day and keeps the
// per-meal and per-day totals equal to the sum of the items they contain.
package ledger

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/vbonduro/mealledger/internal/domain"
)

// DayLayout is the calendar-day key format.
const DayLayout = "2006-01-02"

// Meal is an ordered collection of items plus their cached totals.
type Meal struct {
	Items  []domain.FoodItem `json:"items"`
	Totals domain.Nutrition  `json:"totals"`
}

// DailyLedger is the current day's intake for one user. Version is the
// persisted document version used for compare-and-swap writes; 0 means the
// ledger has never been stored.
type DailyLedger struct {
	UserID    string           `json:"userId"`
	Day       string           `json:"day"`
	Breakfast Meal             `json:"breakfast"`
	Lunch     Meal             `json:"lunch"`
	Dinner    Meal             `json:"dinner"`
	Totals    domain.Nutrition `json:"totals"`
	Version   int64            `json:"-"`
}

func New(userID, day string) *DailyLedger {
	return &DailyLedger{
		UserID:    userID,
		Day:       day,
		Breakfast: Meal{Items: []domain.FoodItem{}},
		Lunch:     Meal{Items: []domain.FoodItem{}},
		Dinner:    Meal{Items: []domain.FoodItem{}},
	}
}

// Meal returns the meal for slot, or an error for an unknown slot.
func (l *DailyLedger) Meal(slot domain.MealSlot) (*Meal, error) {
	switch slot {
	case domain.Breakfast:
		return &l.Breakfast, nil
	case domain.Lunch:
		return &l.Lunch, nil
	case domain.Dinner:
		return &l.Dinner, nil
	}
	return nil, &domain.ValidationError{Field: "slot", Message: fmt.Sprintf("unknown meal slot %q", slot)}
}

// AddItem appends item to slot and recomputes totals. An empty ID is replaced
// with a fresh one; a caller-supplied ID must be unique within the slot.
func (l *DailyLedger) AddItem(slot domain.MealSlot, item domain.FoodItem) (domain.FoodItem, error) {
	meal, err := l.Meal(slot)
	if err != nil {
		return domain.FoodItem{}, err
	}
	if err := item.Validate(); err != nil {
		return domain.FoodItem{}, err
	}

	if item.ID == "" {
		item.ID = uuid.New().String()
	} else if meal.indexOf(item.ID) >= 0 {
		return domain.FoodItem{}, &domain.ValidationError{Field: "id", Message: "already present in " + string(slot)}
	}

	meal.Items = append(meal.Items, item)
	l.recompute()
	return item, nil
}

// RemoveItem deletes the item with id from slot. Totals are rebuilt from the
// remaining items rather than decremented.
func (l *DailyLedger) RemoveItem(slot domain.MealSlot, id string) error {
	meal, err := l.Meal(slot)
	if err != nil {
		return err
	}
	idx := meal.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("item %s in %s: %w", id, slot, domain.ErrNotFound)
	}

	meal.Items = slices.Delete(meal.Items, idx, idx+1)
	l.recompute()
	return nil
}

// ResizeItem rescales the portion of an existing item in place.
func (l *DailyLedger) ResizeItem(slot domain.MealSlot, id string, grams float64) (domain.FoodItem, error) {
	meal, err := l.Meal(slot)
	if err != nil {
		return domain.FoodItem{}, err
	}
	idx := meal.indexOf(id)
	if idx < 0 {
		return domain.FoodItem{}, fmt.Errorf("item %s in %s: %w", id, slot, domain.ErrNotFound)
	}

	resized, err := meal.Items[idx].Rescale(grams)
	if err != nil {
		return domain.FoodItem{}, err
	}
	meal.Items[idx] = resized
	l.recompute()
	return resized, nil
}

// ItemCount is the number of items across all three meals.
func (l *DailyLedger) ItemCount() int {
	return len(l.Breakfast.Items) + len(l.Lunch.Items) + len(l.Dinner.Items)
}

// Clone returns a deep copy that shares no slices with l.
func (l *DailyLedger) Clone() *DailyLedger {
	out := *l
	out.Breakfast.Items = slices.Clone(l.Breakfast.Items)
	out.Lunch.Items = slices.Clone(l.Lunch.Items)
	out.Dinner.Items = slices.Clone(l.Dinner.Items)
	return &out
}

// Recompute rebuilds every cached total from the items. Used after loading a
// document so a tampered or stale row cannot carry drifted totals.
func (l *DailyLedger) Recompute() {
	l.recompute()
}

func (l *DailyLedger) recompute() {
	l.Breakfast.recompute()
	l.Lunch.recompute()
	l.Dinner.recompute()
	l.Totals = l.Breakfast.Totals.Add(l.Lunch.Totals).Add(l.Dinner.Totals)
}

func (m *Meal) recompute() {
	var sum domain.Nutrition
	for _, item := range m.Items {
		sum = sum.Add(item.Nutrition)
	}
	m.Totals = sum
}

func (m *Meal) indexOf(id string) int {
	return slices.IndexFunc(m.Items, func(it domain.FoodItem) bool { return it.ID == id })
}
