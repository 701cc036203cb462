package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/mealledger/internal/domain"
	"github.com/vbonduro/mealledger/internal/imagestore"
	"github.com/vbonduro/mealledger/internal/ledger"
)

// historyRepository is the subset of store.HistoryStore that HistoryService requires.
type historyRepository interface {
	Append(ctx context.Context, e *domain.HistoryEntry) error
	GetByID(ctx context.Context, userID, id string) (*domain.HistoryEntry, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.HistoryEntry, error)
	Delete(ctx context.Context, userID, id string) error
}

// mealAdder is the part of LedgerService used to copy an entry into today's meals.
type mealAdder interface {
	AddItem(ctx context.Context, userID string, slot domain.MealSlot, item domain.FoodItem) (domain.FoodItem, *ledger.DailyLedger, error)
}

type HistoryService struct {
	history historyRepository
	users   userLookup
	images  imagestore.ImageStore
	meals   mealAdder
	now     func() time.Time
	logger  *slog.Logger
}

func NewHistoryService(
	history historyRepository,
	users userLookup,
	images imagestore.ImageStore,
	meals mealAdder,
	logger *slog.Logger,
) *HistoryService {
	return &HistoryService{
		history: history,
		users:   users,
		images:  images,
		meals:   meals,
		now:     time.Now,
		logger:  logger,
	}
}

// HistoryInput is the caller-supplied part of a history entry.
type HistoryInput struct {
	MealName    string           `json:"mealName"`
	Nutrition   domain.Nutrition `json:"nutrition"`
	WeightGrams float64          `json:"weightGrams"`
}

func (in HistoryInput) validate() error {
	if strings.TrimSpace(in.MealName) == "" {
		return &domain.ValidationError{Field: "mealName", Message: "required"}
	}
	if math.IsNaN(in.WeightGrams) || math.IsInf(in.WeightGrams, 0) || in.WeightGrams < 0 {
		return &domain.ValidationError{Field: "weightGrams", Message: "must be a finite non-negative number"}
	}
	return in.Nutrition.Validate()
}

// Append logs a meal with a fresh id and timestamp. When image is non-empty
// it is stored first and removed again if the entry cannot be recorded.
func (s *HistoryService) Append(ctx context.Context, userID string, in HistoryInput, image []byte, mimeType string) (*domain.HistoryEntry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := requireUser(ctx, s.users, userID); err != nil {
		return nil, err
	}

	entry := &domain.HistoryEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		MealName:    strings.TrimSpace(in.MealName),
		Nutrition:   in.Nutrition,
		WeightGrams: in.WeightGrams,
		Timestamp:   s.now().UTC(),
	}

	if len(image) > 0 {
		key, err := s.images.Save(ctx, userID, mimeType, bytes.NewReader(image))
		if err != nil {
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		entry.ImageKey = key
		entry.ImageMIME = mimeType
		s.logger.Debug("history image saved", "user_id", userID, "storage_key", key)
	}

	if err := s.history.Append(ctx, entry); err != nil {
		if entry.HasImage() {
			if derr := s.images.Delete(ctx, entry.ImageKey); derr != nil {
				s.logger.Error("failed to roll back history image", "user_id", userID, "storage_key", entry.ImageKey, "error", derr)
			}
		}
		return nil, fmt.Errorf("failed to append history entry: %w", err)
	}

	s.logger.Info("history entry appended", "user_id", userID, "entry_id", entry.ID, "has_image", entry.HasImage())
	return entry, nil
}

// Remove deletes the entry and, best effort, its image.
func (s *HistoryService) Remove(ctx context.Context, userID, id string) error {
	entry, err := s.get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.history.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}

	if entry.HasImage() {
		if err := s.images.Delete(ctx, entry.ImageKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to delete history image", "user_id", userID, "storage_key", entry.ImageKey, "error", err)
		}
	}
	s.logger.Info("history entry removed", "user_id", userID, "entry_id", id)
	return nil
}

// List returns the user's entries newest first.
func (s *HistoryService) List(ctx context.Context, userID string) ([]*domain.HistoryEntry, error) {
	if _, err := requireUser(ctx, s.users, userID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// Image opens the bytes attached to an entry. The caller closes the reader.
func (s *HistoryService) Image(ctx context.Context, userID, id string) (io.ReadCloser, string, error) {
	entry, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	if !entry.HasImage() {
		return nil, "", fmt.Errorf("image for history entry %s: %w", id, domain.ErrNotFound)
	}

	rc, mimeType, err := s.images.Get(ctx, entry.ImageKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get image: %w", err)
	}
	if entry.ImageMIME != "" {
		mimeType = entry.ImageMIME
	}
	return rc, mimeType, nil
}

// AddToMeal copies the entry's nutrition into a new item in today's slot.
// The entry itself is left untouched.
func (s *HistoryService) AddToMeal(ctx context.Context, userID, id string, slot domain.MealSlot) (domain.FoodItem, *ledger.DailyLedger, error) {
	entry, err := s.get(ctx, userID, id)
	if err != nil {
		return domain.FoodItem{}, nil, err
	}

	item := domain.FoodItem{
		Name:        entry.MealName,
		WeightGrams: entry.WeightGrams,
		Nutrition:   entry.Nutrition,
	}
	return s.meals.AddItem(ctx, userID, slot, item)
}

func (s *HistoryService) get(ctx context.Context, userID, id string) (*domain.HistoryEntry, error) {
	entry, err := s.history.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("history entry %s: %w", id, domain.ErrNotFound)
	}
	return entry, nil
}
