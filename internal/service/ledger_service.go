package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/mealledger/internal/domain"
	"github.com/vbonduro/mealledger/internal/ledger"
)

// maxConflictRetries bounds reload-and-retry when another process wrote the
// same day document between our read and write.
const maxConflictRetries = 3

// ledgerRepository is the subset of store.LedgerStore that LedgerService requires.
type ledgerRepository interface {
	Get(ctx context.Context, userID, day string) (*ledger.DailyLedger, error)
	Save(ctx context.Context, l *ledger.DailyLedger) error
}

// LedgerService applies item mutations to the current day's ledger. Mutations
// for one user are serialised in-process and persisted with a version check;
// different users never wait on each other.
type LedgerService struct {
	ledgers ledgerRepository
	users   userLookup
	loc     *time.Location
	now     func() time.Time
	locks   *keyedMutex
	logger  *slog.Logger
}

func NewLedgerService(ledgers ledgerRepository, users userLookup, loc *time.Location, logger *slog.Logger) *LedgerService {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerService{
		ledgers: ledgers,
		users:   users,
		loc:     loc,
		now:     time.Now,
		locks:   newKeyedMutex(),
		logger:  logger,
	}
}

// DaySummary is the current ledger alongside the user's calorie goal.
type DaySummary struct {
	*ledger.DailyLedger
	CalorieGoal float64 `json:"calorieGoal"`
	Remaining   float64 `json:"remainingCalories"`
}

// Today is the ledger day key for the current time in the configured zone.
func (s *LedgerService) Today() string {
	return s.now().In(s.loc).Format(ledger.DayLayout)
}

// GetDay returns today's ledger, empty if nothing has been logged yet.
func (s *LedgerService) GetDay(ctx context.Context, userID string) (*DaySummary, error) {
	u, err := requireUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	l, err := s.load(ctx, userID, s.Today())
	if err != nil {
		return nil, err
	}
	return &DaySummary{
		DailyLedger: l,
		CalorieGoal: u.Targets.CalorieGoal,
		Remaining:   u.Targets.CalorieGoal - l.Totals.Calories,
	}, nil
}

func (s *LedgerService) AddItem(ctx context.Context, userID string, slot domain.MealSlot, item domain.FoodItem) (domain.FoodItem, *ledger.DailyLedger, error) {
	var added domain.FoodItem
	l, err := s.mutate(ctx, userID, func(l *ledger.DailyLedger) error {
		var err error
		added, err = l.AddItem(slot, item)
		return err
	})
	if err != nil {
		return domain.FoodItem{}, nil, err
	}
	s.logger.Info("item added", "user_id", userID, "slot", slot, "item_id", added.ID, "calories", added.Nutrition.Calories)
	return added, l, nil
}

func (s *LedgerService) RemoveItem(ctx context.Context, userID string, slot domain.MealSlot, itemID string) (*ledger.DailyLedger, error) {
	l, err := s.mutate(ctx, userID, func(l *ledger.DailyLedger) error {
		return l.RemoveItem(slot, itemID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("item removed", "user_id", userID, "slot", slot, "item_id", itemID)
	return l, nil
}

// ResizeItem changes an item's portion, scaling its nutrition linearly.
func (s *LedgerService) ResizeItem(ctx context.Context, userID string, slot domain.MealSlot, itemID string, grams float64) (domain.FoodItem, *ledger.DailyLedger, error) {
	var resized domain.FoodItem
	l, err := s.mutate(ctx, userID, func(l *ledger.DailyLedger) error {
		var err error
		resized, err = l.ResizeItem(slot, itemID, grams)
		return err
	})
	if err != nil {
		return domain.FoodItem{}, nil, err
	}
	s.logger.Info("item resized", "user_id", userID, "slot", slot, "item_id", itemID, "grams", grams)
	return resized, l, nil
}

// mutate runs fn against a private copy of today's ledger and replaces the
// stored document in one write. fn's error aborts without writing.
func (s *LedgerService) mutate(ctx context.Context, userID string, fn func(*ledger.DailyLedger) error) (*ledger.DailyLedger, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	if _, err := requireUser(ctx, s.users, userID); err != nil {
		return nil, err
	}
	day := s.Today()

	for attempt := 0; ; attempt++ {
		current, err := s.load(ctx, userID, day)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}

		err = s.ledgers.Save(ctx, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= maxConflictRetries {
			return nil, fmt.Errorf("failed to save ledger: %w", err)
		}
		s.logger.Warn("ledger write conflict, retrying", "user_id", userID, "day", day, "attempt", attempt+1)
	}
}

func (s *LedgerService) load(ctx context.Context, userID, day string) (*ledger.DailyLedger, error) {
	l, err := s.ledgers.Get(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if l == nil {
		l = ledger.New(userID, day)
	}
	return l, nil
}
