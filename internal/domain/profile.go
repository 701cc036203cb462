package domain

import (
	"math"
	"strings"
)

type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

type Goal string

const (
	GoalGain     Goal = "gain"
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
)

type Pace string

const (
	PaceSlow     Pace = "slow"
	PaceModerate Pace = "moderate"
	PaceFast     Pace = "fast"
)

const (
	MinActivityFactor = 1.2
	MaxActivityFactor = 2.5
)

// NutritionProfile is the body metrics and goal a calorie target is derived from.
// BodyFatPercent of 0 means "not provided".
type NutritionProfile struct {
	AgeYears       int     `json:"ageYears"`
	WeightKg       float64 `json:"weightKg"`
	HeightCm       float64 `json:"heightCm"`
	Sex            Sex     `json:"sex"`
	ActivityFactor float64 `json:"activityFactor"`
	BodyFatPercent float64 `json:"bodyFatPercent,omitempty"`
	Goal           Goal    `json:"goal"`
	Pace           Pace    `json:"pace"`
}

// CalorieTargets are derived from a NutritionProfile and never set by hand.
type CalorieTargets struct {
	BMR         float64 `json:"bmr"`
	TDEE        float64 `json:"tdee"`
	CalorieGoal float64 `json:"calorieGoal"`
}

// Normalize lower-cases the enum fields so "Male" and "male" are equivalent.
func (p NutritionProfile) Normalize() NutritionProfile {
	p.Sex = Sex(strings.ToLower(strings.TrimSpace(string(p.Sex))))
	p.Goal = Goal(strings.ToLower(strings.TrimSpace(string(p.Goal))))
	p.Pace = Pace(strings.ToLower(strings.TrimSpace(string(p.Pace))))
	if p.Goal == "" {
		p.Goal = GoalMaintain
	}
	if p.Pace == "" {
		p.Pace = PaceModerate
	}
	return p
}

// Validate checks the ranges callers must enforce before computing targets.
func (p NutritionProfile) Validate() error {
	if p.AgeYears < 1 || p.AgeYears > 130 {
		return &ValidationError{Field: "ageYears", Message: "must be between 1 and 130"}
	}
	if !positiveFinite(p.WeightKg) {
		return &ValidationError{Field: "weightKg", Message: "must be a positive number"}
	}
	if !positiveFinite(p.HeightCm) {
		return &ValidationError{Field: "heightCm", Message: "must be a positive number"}
	}
	if p.Sex != Male && p.Sex != Female {
		return &ValidationError{Field: "sex", Message: "must be male or female"}
	}
	if math.IsNaN(p.ActivityFactor) || p.ActivityFactor < MinActivityFactor || p.ActivityFactor > MaxActivityFactor {
		return &ValidationError{Field: "activityFactor", Message: "must be between 1.2 and 2.5"}
	}
	if math.IsNaN(p.BodyFatPercent) || p.BodyFatPercent < 0 || p.BodyFatPercent >= 75 {
		return &ValidationError{Field: "bodyFatPercent", Message: "must be between 0 and 75"}
	}
	switch p.Goal {
	case GoalGain, GoalLose, GoalMaintain:
	default:
		return &ValidationError{Field: "goal", Message: "must be gain, lose or maintain"}
	}
	switch p.Pace {
	case PaceSlow, PaceModerate, PaceFast:
	default:
		return &ValidationError{Field: "pace", Message: "must be slow, moderate or fast"}
	}
	return nil
}

func positiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
