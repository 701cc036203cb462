package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/mealledger/internal/domain"
)

func TestRegisterComputesTargets(t *testing.T) {
	svc := newTestUserService(openTestDB(t))

	u, err := svc.Register(context.Background(), Registration{
		Email:    "sam@example.com",
		Password: "correct horse",
		Name:     "Sam",
		Profile:  validProfile(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.Equal(t, domain.GoalMaintain, u.Profile.Goal)
	assert.Equal(t, domain.PaceModerate, u.Profile.Pace)
	assert.InDelta(t, 1780, u.Targets.BMR, 0.01)
	assert.InDelta(t, 2136, u.Targets.TDEE, 0.01)
	assert.InDelta(t, 2136, u.Targets.CalorieGoal, 0.01)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestUserService(openTestDB(t))

	badAge := validProfile()
	badAge.AgeYears = 0
	badActivity := validProfile()
	badActivity.ActivityFactor = 3

	tests := []struct {
		name  string
		reg   Registration
		field string
	}{
		{"bad email", Registration{Email: "nope", Password: "correct horse", Name: "A", Profile: validProfile()}, "email"},
		{"short password", Registration{Email: "a@example.com", Password: "short", Name: "A", Profile: validProfile()}, "password"},
		{"missing name", Registration{Email: "a@example.com", Password: "correct horse", Name: "  ", Profile: validProfile()}, "name"},
		{"bad age", Registration{Email: "a@example.com", Password: "correct horse", Name: "A", Profile: badAge}, "ageYears"},
		{"bad activity", Registration{Email: "a@example.com", Password: "correct horse", Name: "A", Profile: badActivity}, "activityFactor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.reg)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	d := openTestDB(t)
	registerUser(t, d, "sam@example.com")

	_, err := newTestUserService(d).Register(context.Background(), Registration{
		Email:    "SAM@example.com",
		Password: "another one",
		Name:     "Other Sam",
		Profile:  validProfile(),
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestAuthenticate(t *testing.T) {
	d := openTestDB(t)
	id := registerUser(t, d, "sam@example.com")
	svc := newTestUserService(d)
	ctx := context.Background()

	u, err := svc.Authenticate(ctx, "sam@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = svc.Authenticate(ctx, "sam@example.com", "wrong horse")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateProfileRecomputesTargets(t *testing.T) {
	d := openTestDB(t)
	id := registerUser(t, d, "sam@example.com")
	svc := newTestUserService(d)

	p := validProfile()
	p.Goal = "Lose"
	p.Pace = "fast"
	u, err := svc.UpdateProfile(context.Background(), id, p)
	require.NoError(t, err)

	assert.Equal(t, domain.GoalLose, u.Profile.Goal)
	assert.InDelta(t, 2136, u.Targets.TDEE, 0.01)
	assert.InDelta(t, 1136, u.Targets.CalorieGoal, 0.01)
}

func TestUpdateProfileErrors(t *testing.T) {
	d := openTestDB(t)
	id := registerUser(t, d, "sam@example.com")
	svc := newTestUserService(d)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, "missing", validProfile())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p := validProfile()
	p.BodyFatPercent = 80
	_, err = svc.UpdateProfile(ctx, id, p)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "bodyFatPercent", ve.Field)
}

func TestGetUserNotFound(t *testing.T) {
	svc := newTestUserService(openTestDB(t))

	_, err := svc.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
