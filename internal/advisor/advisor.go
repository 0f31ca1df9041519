// Package advisor turns meal nutrition totals into rule-based health alerts
// and nutritional advice.
package advisor

import (
	"fmt"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/nutrition"
)

// Health goals understood by the personalised rules
const (
	GoalWeightLoss  = "weight_loss"
	GoalMuscleGain  = "muscle_gain"
	GoalMaintenance = "maintenance"
)

// Defaults applied when a profile leaves a target unset
const (
	DefaultCalorieTarget = 2000
	DefaultProteinTarget = 120
)

// Meal thresholds
const (
	highCalories       = 800.0
	highFat            = 30.0
	highSodium         = 1000.0
	highSugar          = 15.0
	mealCalorieShare   = 0.4
	weightLossCarbs    = 60.0
	mealProteinShare   = 0.3
	minProteinRatio    = 0.15
	minFiber           = 5.0
	maxFatProteinRatio = 2.0
)

// Alert and advice messages
const (
	AlertHighCalories = "⚠️ High Calorie Meal: This meal contains over 800 calories. Consider balancing with lighter meals today."
	AlertHighFat      = "🚨 High Fat Content: This meal contains significant fat. Excessive fat intake may impact heart health."
	AlertHighSodium   = "⚠️ High Sodium: This meal exceeds 1000mg of sodium. High sodium intake can raise blood pressure."
	AlertHighSugar    = "🍭 High Sugar: This meal contains significant sugar. Monitor your sugar intake throughout the day."
	AlertWeightLoss   = "🎯 Weight Loss Goal: Consider reducing carbohydrate portions for better results."
	AlertBalanced     = "✅ This meal looks balanced and healthy!"

	AdviceProtein = "🥚 Consider adding more protein sources (dal, paneer, chicken, eggs) to this meal."
	AdviceFiber   = "🥗 Add more fiber with vegetables, whole grains, or lentils for better digestion."
	AdviceFat     = "⚖️ This meal is high in fat relative to protein. Balance with lean proteins."
)

// Profile carries the user targets used by the personalised alerts
type Profile struct {
	DailyCalorieTarget int    `json:"daily_calorie_target" yaml:"daily_calorie_target"`
	DailyProteinTarget int    `json:"daily_protein_target_g" yaml:"daily_protein_target_g"`
	HealthGoal         string `json:"health_goal" yaml:"health_goal"`
}

func (p *Profile) calorieTarget() int {
	if p.DailyCalorieTarget <= 0 {
		return DefaultCalorieTarget
	}
	return p.DailyCalorieTarget
}

func (p *Profile) proteinTarget() int {
	if p.DailyProteinTarget <= 0 {
		return DefaultProteinTarget
	}
	return p.DailyProteinTarget
}

// Alerts evaluates the meal rules in order. The result is never empty: when
// no rule fires it holds the single balanced-meal message.
func Alerts(totals catalog.Nutrients, profile *Profile) []string {
	var alerts []string

	if totals.Calories > highCalories {
		alerts = append(alerts, AlertHighCalories)
	}
	if totals.Fat > highFat {
		alerts = append(alerts, AlertHighFat)
	}
	if totals.Sodium > highSodium {
		alerts = append(alerts, AlertHighSodium)
	}
	if totals.Sugar > highSugar {
		alerts = append(alerts, AlertHighSugar)
	}

	if profile != nil {
		alerts = append(alerts, personalAlerts(totals, profile)...)
	}

	if len(alerts) == 0 {
		return []string{AlertBalanced}
	}
	return alerts
}

func personalAlerts(totals catalog.Nutrients, profile *Profile) []string {
	var alerts []string

	target := profile.calorieTarget()
	if totals.Calories > float64(target)*mealCalorieShare {
		alerts = append(alerts, fmt.Sprintf(
			"🎯 This meal is %d%% of your daily calorie target (%d calories).",
			int(totals.Calories/float64(target)*100), target))
	}

	switch profile.HealthGoal {
	case GoalWeightLoss:
		if totals.Carbs > weightLossCarbs {
			alerts = append(alerts, AlertWeightLoss)
		}
	case GoalMuscleGain:
		mealTarget := float64(profile.proteinTarget()) * mealProteinShare
		if totals.Protein < mealTarget {
			alerts = append(alerts, fmt.Sprintf(
				"💪 Muscle Gain Goal: This meal has %sg protein. Consider adding %dg more protein.",
				nutrition.FormatDecimal(totals.Protein), int(mealTarget-totals.Protein)))
		}
	}
	return alerts
}

// Advice returns composition advice for a meal; it may be empty
func Advice(totals catalog.Nutrients) []string {
	advice := []string{}

	if totals.Protein*4/max(totals.Calories, 1) < minProteinRatio {
		advice = append(advice, AdviceProtein)
	}
	if totals.Fiber < minFiber {
		advice = append(advice, AdviceFiber)
	}
	if totals.Fat > totals.Protein*maxFatProteinRatio {
		advice = append(advice, AdviceFat)
	}
	return advice
}

// FoodTags returns the health tags and warnings of a catalog food
func FoodTags(cat *catalog.Catalog, id string) (healthTags, warnings []string) {
	return cat.Tags(id)
}
