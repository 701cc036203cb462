// Package nutrition derives daily calorie targets from body metrics.
package nutrition

import (
	"math"

	"github.com/vbonduro/mealledger/internal/domain"
)

// paceOffsets is the daily kcal surplus (gain) or deficit (lose) per pace.
var paceOffsets = map[domain.Pace]float64{
	domain.PaceSlow:     250,
	domain.PaceModerate: 500,
	domain.PaceFast:     1000,
}

// ComputeGoal returns BMR, TDEE and the goal-adjusted calorie target.
//
// BMR uses Katch-McArdle when a body fat percentage is set and Mifflin-St Jeor
// otherwise. The activity factor is applied as given; range checks belong to
// the caller. An unknown goal or pace yields the unmodified TDEE.
func ComputeGoal(p domain.NutritionProfile) (domain.CalorieTargets, error) {
	if err := checkInputs(p); err != nil {
		return domain.CalorieTargets{}, err
	}

	bmr := BMR(p)
	tdee := bmr * p.ActivityFactor

	return domain.CalorieTargets{
		BMR:         bmr,
		TDEE:        tdee,
		CalorieGoal: adjustForGoal(tdee, p.Goal, p.Pace),
	}, nil
}

// BMR computes basal metabolic rate in kcal/day. Inputs are assumed checked.
func BMR(p domain.NutritionProfile) float64 {
	if p.BodyFatPercent > 0 {
		leanMass := p.WeightKg * (1 - p.BodyFatPercent/100)
		return leanMass*21.6 + 370
	}

	base := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.AgeYears)
	if p.Sex == domain.Female {
		return base - 161
	}
	return base + 5
}

func adjustForGoal(tdee float64, goal domain.Goal, pace domain.Pace) float64 {
	offset, ok := paceOffsets[pace]
	if !ok {
		return tdee
	}
	switch goal {
	case domain.GoalGain:
		return tdee + offset
	case domain.GoalLose:
		return tdee - offset
	default:
		return tdee
	}
}

func checkInputs(p domain.NutritionProfile) error {
	if p.AgeYears < 0 {
		return &domain.ValidationError{Field: "ageYears", Message: "must not be negative"}
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"weightKg", p.WeightKg},
		{"heightCm", p.HeightCm},
		{"activityFactor", p.ActivityFactor},
		{"bodyFatPercent", p.BodyFatPercent},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return &domain.ValidationError{Field: f.name, Message: "must be a finite non-negative number"}
		}
	}
	return nil
}
