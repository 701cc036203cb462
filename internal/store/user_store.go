package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vbonduro/mealledger/internal/domain"
)

const userColumns = `id, email, name, password_hash, profile, targets, created_at, updated_at`

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts u. A duplicate email yields an error wrapping domain.ErrConflict.
func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	targets, err := json.Marshal(u.Targets)
	if err != nil {
		return fmt.Errorf("failed to encode targets: %w", err)
	}

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, strings.ToLower(u.Email), u.Name, u.PasswordHash, string(profile), string(targets), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, domain.ErrConflict)
		}
		return unavailable("create user", err)
	}
	u.Email = strings.ToLower(u.Email)
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByEmail matches case-insensitively.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
	return scanUser(row)
}

// UpdateProfile replaces the stored profile and its derived targets together.
func (s *UserStore) UpdateProfile(ctx context.Context, id string, p domain.NutritionProfile, t domain.CalorieTargets) error {
	profile, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	targets, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode targets: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET profile = ?, targets = ?, updated_at = ? WHERE id = ?
	`, string(profile), string(targets), time.Now().UTC(), id)
	if err != nil {
		return unavailable("update profile", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("get rows affected", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanUser(row scanner) (*domain.User, error) {
	u := &domain.User{}
	var profile, targets string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &profile, &targets, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get user", err)
	}

	if err := json.Unmarshal([]byte(profile), &u.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile for user %s: %w", u.ID, err)
	}
	if err := json.Unmarshal([]byte(targets), &u.Targets); err != nil {
		return nil, fmt.Errorf("failed to decode targets for user %s: %w", u.ID, err)
	}
	return u, nil
}
