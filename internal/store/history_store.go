package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vbonduro/mealledger/internal/domain"
)

const historyColumns = `id, user_id, meal_name, calories, protein, carbs, fat, weight_grams, image_key, image_mime, created_at`

// HistoryStore is append/remove only; entries are never updated.
type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append is a single INSERT and never reads existing entries.
func (s *HistoryStore) Append(ctx context.Context, e *domain.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_entries (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.MealName,
		e.Nutrition.Calories, e.Nutrition.Protein, e.Nutrition.Carbs, e.Nutrition.Fat,
		e.WeightGrams, e.ImageKey, e.ImageMIME, e.Timestamp.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("history entry %s: %w", e.ID, domain.ErrConflict)
		}
		return unavailable("append history entry", err)
	}
	return nil
}

func (s *HistoryStore) GetByID(ctx context.Context, userID, id string) (*domain.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+historyColumns+` FROM history_entries WHERE user_id = ? AND id = ?
	`, userID, id)
	e, err := scanHistoryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get history entry", err)
	}
	return e, nil
}

// ListByUser returns the user's entries newest first.
func (s *HistoryStore) ListByUser(ctx context.Context, userID string) ([]*domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+historyColumns+` FROM history_entries
		WHERE user_id = ? ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, unavailable("list history", err)
	}
	defer rows.Close()

	entries := []*domain.HistoryEntry{}
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, unavailable("scan history entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate history", err)
	}
	return entries, nil
}

func (s *HistoryStore) Delete(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM history_entries WHERE user_id = ? AND id = ?
	`, userID, id)
	if err != nil {
		return unavailable("delete history entry", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("get rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("history entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanHistoryEntry(row scanner) (*domain.HistoryEntry, error) {
	e := &domain.HistoryEntry{}
	var createdAt int64
	err := row.Scan(&e.ID, &e.UserID, &e.MealName,
		&e.Nutrition.Calories, &e.Nutrition.Protein, &e.Nutrition.Carbs, &e.Nutrition.Fat,
		&e.WeightGrams, &e.ImageKey, &e.ImageMIME, &createdAt)
	if err != nil {
		return nil, err
	}
	e.Timestamp = time.Unix(0, createdAt).UTC()
	return e, nil
}
