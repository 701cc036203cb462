package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/vbonduro/mealledger/internal/domain"
	"github.com/vbonduro/mealledger/internal/nutrition"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// userRepository is the subset of store.UserStore that UserService requires.
type userRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, p domain.NutritionProfile, t domain.CalorieTargets) error
}

// userLookup is the read-only view of users the other services need.
type userLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type UserService struct {
	users    userRepository
	hashCost int
	logger   *slog.Logger
}

func NewUserService(users userRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, hashCost: bcrypt.DefaultCost, logger: logger}
}

type Registration struct {
	Email    string                  `json:"email"`
	Password string                  `json:"password"`
	Name     string                  `json:"name"`
	Profile  domain.NutritionProfile `json:"profile"`
}

// Register creates a user with targets derived from the submitted profile.
func (s *UserService) Register(ctx context.Context, r Registration) (*domain.User, error) {
	email := strings.TrimSpace(r.Email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, &domain.ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if len(r.Password) < minPasswordLength {
		return nil, &domain.ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "required"}
	}

	profile, targets, err := deriveTargets(r.Profile)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Profile:      profile,
		Targets:      targets,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, &domain.ValidationError{Field: "email", Message: "already registered"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "calorie_goal", targets.CalorieGoal)
	return u, nil
}

// Authenticate returns the user owning email when password matches. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("password mismatch", "user_id", u.ID)
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrNotFound)
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return requireUser(ctx, s.users, id)
}

// UpdateProfile replaces the user's metrics and recomputes every derived target.
func (s *UserService) UpdateProfile(ctx context.Context, id string, p domain.NutritionProfile) (*domain.User, error) {
	if _, err := requireUser(ctx, s.users, id); err != nil {
		return nil, err
	}

	profile, targets, err := deriveTargets(p)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfile(ctx, id, profile, targets); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("profile updated", "user_id", id, "calorie_goal", targets.CalorieGoal)
	return requireUser(ctx, s.users, id)
}

func deriveTargets(p domain.NutritionProfile) (domain.NutritionProfile, domain.CalorieTargets, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return p, domain.CalorieTargets{}, err
	}
	targets, err := nutrition.ComputeGoal(p)
	if err != nil {
		return p, domain.CalorieTargets{}, err
	}
	return p, targets, nil
}

func requireUser(ctx context.Context, users userLookup, id string) (*domain.User, error) {
	u, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return u, nil
}
