package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vbonduro/mealledger/internal/db"
	"github.com/vbonduro/mealledger/internal/domain"
	"github.com/vbonduro/mealledger/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func newTestUserService(d *sql.DB) *UserService {
	svc := NewUserService(store.NewUserStore(d), testLogger())
	svc.hashCost = bcrypt.MinCost
	return svc
}

func validProfile() domain.NutritionProfile {
	return domain.NutritionProfile{
		AgeYears:       30,
		WeightKg:       80,
		HeightCm:       180,
		Sex:            domain.Male,
		ActivityFactor: 1.2,
	}
}

// registerUser creates a user through the service and returns its id.
func registerUser(t *testing.T, d *sql.DB, email string) string {
	t.Helper()
	u, err := newTestUserService(d).Register(context.Background(), Registration{
		Email:    email,
		Password: "correct horse",
		Name:     strings.Split(email, "@")[0],
		Profile:  validProfile(),
	})
	require.NoError(t, err)
	return u.ID
}

// stubImageStore is a minimal in-memory imagestore.ImageStore for tests.
type stubImageStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	n       int
	saveErr error
}

func newStubImageStore() *stubImageStore {
	return &stubImageStore{saved: make(map[string][]byte)}
}

func (s *stubImageStore) Save(_ context.Context, prefix, _ string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, _ := io.ReadAll(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	key := fmt.Sprintf("%s/%d.jpg", prefix, s.n)
	s.saved[key] = data
	return key, nil
}

func (s *stubImageStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saved[key]
	if !ok {
		return nil, "", fmt.Errorf("image %s: %w", key, domain.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), "image/jpeg", nil
}

func (s *stubImageStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.saved[key]; !ok {
		return fmt.Errorf("image %s: %w", key, domain.ErrNotFound)
	}
	delete(s.saved, key)
	return nil
}

func (s *stubImageStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// stubRecognizer returns canned payloads.
type stubRecognizer struct {
	imagePayload string
	textPayload  string
	err          error
	calls        int
	lastText     string
}

func (s *stubRecognizer) RecognizeImage(_ context.Context, r io.Reader, _ string) ([]byte, error) {
	s.calls++
	_, _ = io.ReadAll(r)
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.imagePayload), nil
}

func (s *stubRecognizer) EstimateText(_ context.Context, description string) ([]byte, error) {
	s.calls++
	s.lastText = description
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.textPayload), nil
}

var errUpstream = errors.New("upstream status 500")
