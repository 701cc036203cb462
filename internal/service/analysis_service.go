package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vbonduro/mealledger/internal/domain"
	"github.com/vbonduro/mealledger/internal/vision"
	"golang.org/x/time/rate"
)

// AnalysisService turns photos and meal descriptions into normalized food
// items. Each user gets an independent budget of recognizer calls.
type AnalysisService struct {
	recognizer vision.Recognizer
	users      userLookup
	limit      rate.Limit
	burst      int
	// idleAfter is how long an unused limiter takes to refill its burst.
	idleAfter time.Duration
	now       func() time.Time
	mu        sync.Mutex
	limiters  map[string]*userLimiter
	lastSweep time.Time
	logger    *slog.Logger
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewAnalysisService allows perMinute calls per user with the given burst.
// A non-positive perMinute disables limiting.
func NewAnalysisService(recognizer vision.Recognizer, users userLookup, perMinute float64, burst int, logger *slog.Logger) *AnalysisService {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}
	var idleAfter time.Duration
	if limit != rate.Inf {
		idleAfter = time.Duration(float64(burst) / float64(limit) * float64(time.Second))
	}
	return &AnalysisService{
		recognizer: recognizer,
		users:      users,
		limit:      limit,
		burst:      burst,
		idleAfter:  idleAfter,
		now:        time.Now,
		limiters:   make(map[string]*userLimiter),
		logger:     logger,
	}
}

// AnalyzePhoto asks the image recognizer for a multi-item payload. A failed
// or unusable recognizer response is reported as a malformed Result, not an error.
func (s *AnalysisService) AnalyzePhoto(ctx context.Context, userID string, image []byte, mimeType string) (vision.Result, error) {
	if len(image) == 0 {
		return vision.Result{}, &domain.ValidationError{Field: "image", Message: "required"}
	}
	if err := s.admit(ctx, userID); err != nil {
		return vision.Result{}, err
	}

	s.logger.Info("photo analysis started", "user_id", userID, "mime_type", mimeType, "bytes", len(image))
	raw, err := s.recognizer.RecognizeImage(ctx, bytes.NewReader(image), mimeType)
	if err != nil {
		return s.recognizerFailed(ctx, userID, err)
	}
	return s.normalize(userID, raw, vision.ShapeMultiItem), nil
}

// EstimateMeal asks the text recognizer for a single-item estimate.
func (s *AnalysisService) EstimateMeal(ctx context.Context, userID, description string) (vision.Result, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return vision.Result{}, &domain.ValidationError{Field: "description", Message: "required"}
	}
	if err := s.admit(ctx, userID); err != nil {
		return vision.Result{}, err
	}

	s.logger.Info("text estimate started", "user_id", userID)
	raw, err := s.recognizer.EstimateText(ctx, description)
	if err != nil {
		return s.recognizerFailed(ctx, userID, err)
	}
	return s.normalize(userID, raw, vision.ShapeSingleEstimate), nil
}

func (s *AnalysisService) admit(ctx context.Context, userID string) error {
	if _, err := requireUser(ctx, s.users, userID); err != nil {
		return err
	}
	if !s.allow(userID) {
		s.logger.Warn("analysis rate limited", "user_id", userID)
		return fmt.Errorf("analysis for user %s: %w", userID, domain.ErrRateLimited)
	}
	return nil
}

func (s *AnalysisService) allow(userID string) bool {
	if s.limit == rate.Inf {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evictIdle(now)

	ul, ok := s.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[userID] = ul
	}
	ul.lastUsed = now
	return ul.limiter.AllowN(now, 1)
}

// evictIdle drops limiters whose bucket has refilled, since they are
// indistinguishable from a new one. The map is swept at most once per
// idleAfter. Callers hold s.mu.
func (s *AnalysisService) evictIdle(now time.Time) {
	if now.Sub(s.lastSweep) < s.idleAfter {
		return
	}
	s.lastSweep = now
	for id, ul := range s.limiters {
		if now.Sub(ul.lastUsed) >= s.idleAfter {
			delete(s.limiters, id)
		}
	}
}

func (s *AnalysisService) recognizerFailed(ctx context.Context, userID string, err error) (vision.Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return vision.Result{}, err
	}
	s.logger.Error("recognizer call failed", "user_id", userID, "error", err)
	return vision.Result{
		Kind:  vision.KindMalformed,
		Items: []domain.FoodItem{},
		Err:   &domain.RecognitionError{Reason: "recognizer unavailable"},
	}, nil
}

func (s *AnalysisService) normalize(userID string, raw []byte, shape vision.Shape) vision.Result {
	res := vision.Normalize(raw, shape)
	if res.Malformed() {
		s.logger.Warn("recognizer payload rejected", "user_id", userID, "error", res.Err)
	} else {
		s.logger.Info("analysis complete", "user_id", userID, "kind", res.Kind, "items", len(res.Items))
	}
	return res
}
