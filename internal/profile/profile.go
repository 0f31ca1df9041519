// Package profile derives body metrics and daily nutrition targets from a
// user's physical profile.
package profile

import (
	"fmt"
	"strings"

	"github.com/tphakala/nutritive-go/internal/advisor"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/nutrition"
)

// Gender values
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Accepted ranges
const (
	MinAge      = 10
	MaxAge      = 120
	MinHeightCm = 50.0
	MaxHeightCm = 300.0
	MinWeightKg = 20.0
	MaxWeightKg = 300.0
	MaxNameLen  = 100
)

const (
	activityFactor       = 1.55 // moderate activity
	weightLossDeficit    = 500.0
	muscleGainSurplus    = 300.0
	muscleGainProteinPer = 2.0 // g per kg
	baseProteinPer       = 1.6 // g per kg
	carbsCalorieShare    = 0.475
	fatCalorieShare      = 0.275
)

// BMI categories
const (
	BMIUnderweight = "Underweight"
	BMINormal      = "Normal weight"
	BMIOverweight  = "Overweight"
	BMIObese       = "Obese"
)

// Body is the physical profile targets are computed from
type Body struct {
	Age        int     `json:"age"`
	Gender     string  `json:"gender"`
	HeightCm   float64 `json:"height_cm"`
	WeightKg   float64 `json:"weight_kg"`
	HealthGoal string  `json:"health_goal"`
}

// Validate checks ranges and enumerations
func (b *Body) Validate() error {
	var problems []string
	if b.Age < MinAge || b.Age > MaxAge {
		problems = append(problems, fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge))
	}
	if b.HeightCm < MinHeightCm || b.HeightCm > MaxHeightCm {
		problems = append(problems, fmt.Sprintf("height_cm must be between %.0f and %.0f", MinHeightCm, MaxHeightCm))
	}
	if b.WeightKg < MinWeightKg || b.WeightKg > MaxWeightKg {
		problems = append(problems, fmt.Sprintf("weight_kg must be between %.0f and %.0f", MinWeightKg, MaxWeightKg))
	}
	if !ValidGender(b.Gender) {
		problems = append(problems, "gender must be one of male, female, other")
	}
	if !ValidGoal(b.HealthGoal) {
		problems = append(problems, "health_goal must be one of weight_loss, muscle_gain, maintenance")
	}
	if len(problems) > 0 {
		return errors.Newf("invalid profile: %s", strings.Join(problems, "; ")).
			Component("profile").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// ValidGender reports whether g is a known gender value
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// ValidGoal reports whether g is a known health goal
func ValidGoal(g string) bool {
	return g == advisor.GoalWeightLoss || g == advisor.GoalMuscleGain || g == advisor.GoalMaintenance
}

// BMI returns weight / height² rounded to two decimals
func (b *Body) BMI() float64 {
	if b.HeightCm <= 0 {
		return 0
	}
	m := b.HeightCm / 100
	return nutrition.Round(b.WeightKg/(m*m), 2)
}

// BMICategory returns the category label of bmi
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return BMIUnderweight
	case bmi < 25:
		return BMINormal
	case bmi < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}

// DailyCalorieTarget applies the Mifflin-St Jeor equation with a moderate
// activity factor and adjusts it for the health goal.
func (b *Body) DailyCalorieTarget() int {
	bmr := 10*b.WeightKg + 6.25*b.HeightCm - 5*float64(b.Age)
	switch b.Gender {
	case GenderMale:
		bmr += 5
	case GenderFemale:
		bmr -= 161
	default:
		bmr -= 80
	}

	target := bmr * activityFactor
	switch b.HealthGoal {
	case advisor.GoalWeightLoss:
		target -= weightLossDeficit
	case advisor.GoalMuscleGain:
		target += muscleGainSurplus
	}
	return int(target)
}

// DailyProteinTarget returns grams of protein per day
func (b *Body) DailyProteinTarget() int {
	if b.HealthGoal == advisor.GoalMuscleGain {
		return int(b.WeightKg * muscleGainProteinPer)
	}
	return int(b.WeightKg * baseProteinPer)
}

// DailyCarbsTarget returns grams of carbohydrate for a calorie target
func DailyCarbsTarget(calories int) int {
	return int(float64(calories) * carbsCalorieShare / 4)
}

// DailyFatTarget returns grams of fat for a calorie target
func DailyFatTarget(calories int) int {
	return int(float64(calories) * fatCalorieShare / 9)
}

// AdvisorProfile returns the targets used by the personalised meal alerts
func (b *Body) AdvisorProfile() *advisor.Profile {
	return &advisor.Profile{
		DailyCalorieTarget: b.DailyCalorieTarget(),
		DailyProteinTarget: b.DailyProteinTarget(),
		HealthGoal:         b.HealthGoal,
	}
}

// BMIInfo is a BMI value with its category
type BMIInfo struct {
	Value    float64 `json:"value"`
	Category string  `json:"category"`
}

// DailyTargets are the daily nutrition targets of a user
type DailyTargets struct {
	Calories int `json:"calories"`
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}

// HealthMetrics is the derived health report of a user
type HealthMetrics struct {
	BMI             BMIInfo      `json:"bmi"`
	DailyTargets    DailyTargets `json:"daily_targets"`
	HealthGoal      string       `json:"health_goal"`
	Recommendations []string     `json:"recommendations"`
}

// Metrics computes the health report of b
func (b *Body) Metrics() HealthMetrics {
	bmi := b.BMI()
	calories := b.DailyCalorieTarget()
	return HealthMetrics{
		BMI: BMIInfo{Value: bmi, Category: BMICategory(bmi)},
		DailyTargets: DailyTargets{
			Calories: calories,
			ProteinG: b.DailyProteinTarget(),
			CarbsG:   DailyCarbsTarget(calories),
			FatG:     DailyFatTarget(calories),
		},
		HealthGoal:      b.HealthGoal,
		Recommendations: b.Recommendations(),
	}
}

// Recommendations returns goal and BMI based lifestyle advice
func (b *Body) Recommendations() []string {
	var recs []string
	switch b.HealthGoal {
	case advisor.GoalWeightLoss:
		recs = append(recs,
			"Focus on high-protein, low-carb meals",
			fmt.Sprintf("Aim for %d calories per day", b.DailyCalorieTarget()),
			"Include plenty of vegetables and lean proteins")
	case advisor.GoalMuscleGain:
		recs = append(recs,
			fmt.Sprintf("Consume at least %dg of protein daily", b.DailyProteinTarget()),
			"Include strength training exercises",
			"Eat protein-rich meals after workouts")
	default:
		recs = append(recs,
			"Maintain balanced meals with all food groups",
			"Stay active with regular exercise")
	}

	bmi := b.BMI()
	switch {
	case bmi < 18.5:
		recs = append(recs, "Consider increasing calorie intake gradually")
	case bmi >= 25:
		recs = append(recs, "Focus on portion control and regular physical activity")
	}
	return recs
}
