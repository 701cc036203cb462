package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vbonduro/mealledger/internal/domain"
	"github.com/vbonduro/mealledger/internal/ledger"
)

// LedgerStore keeps one JSON document per user and day. Each write replaces
// the whole document so a failed write leaves the previous totals intact.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// Get returns the stored ledger with totals recomputed from its items, or
// nil if nothing has been stored for that day.
func (s *LedgerStore) Get(ctx context.Context, userID, day string) (*ledger.DailyLedger, error) {
	var doc string
	var version int64
	err := s.db.QueryRowContext(ctx, `
		SELECT doc, version FROM ledgers WHERE user_id = ? AND day = ?
	`, userID, day).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get ledger", err)
	}

	l := ledger.New(userID, day)
	if err := json.Unmarshal([]byte(doc), l); err != nil {
		return nil, fmt.Errorf("failed to decode ledger %s/%s: %w", userID, day, err)
	}
	l.UserID = userID
	l.Day = day
	l.Version = version
	l.Recompute()
	return l, nil
}

// Save writes l if the stored version still equals l.Version, then bumps
// l.Version. A version mismatch returns an error wrapping domain.ErrConflict.
func (s *LedgerStore) Save(ctx context.Context, l *ledger.DailyLedger) error {
	doc, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	now := time.Now().UTC()

	if l.Version == 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO ledgers (user_id, day, doc, version, updated_at) VALUES (?, ?, ?, 1, ?)
		`, l.UserID, l.Day, string(doc), now)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("ledger %s/%s: %w", l.UserID, l.Day, domain.ErrConflict)
			}
			return unavailable("insert ledger", err)
		}
		l.Version = 1
		return nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE ledgers SET doc = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND day = ? AND version = ?
	`, string(doc), now, l.UserID, l.Day, l.Version)
	if err != nil {
		return unavailable("update ledger", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("get rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ledger %s/%s at version %d: %w", l.UserID, l.Day, l.Version, domain.ErrConflict)
	}
	l.Version++
	return nil
}
