package datastore

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/profile"
	"github.com/tphakala/nutritive-go/internal/recognition"
)

// Meal types
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// MaxNotesLength is the longest note accepted on a meal
const MaxNotesLength = 500

// User is a registered user with a physical profile
type User struct {
	ID         string    `gorm:"primaryKey;size:36" json:"user_id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Email      string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Age        int       `json:"age"`
	Gender     string    `gorm:"size:10" json:"gender"`
	HeightCm   float64   `json:"height_cm"`
	WeightKg   float64   `json:"weight_kg"`
	HealthGoal string    `gorm:"size:20" json:"health_goal"`
	CreatedAt  time.Time `json:"created_at"`
}

// Body returns the physical profile of the user
func (u *User) Body() *profile.Body {
	return &profile.Body{
		Age:        u.Age,
		Gender:     u.Gender,
		HeightCm:   u.HeightCm,
		WeightKg:   u.WeightKg,
		HealthGoal: u.HealthGoal,
	}
}

// Validate checks the user's fields
func (u *User) Validate() error {
	name := strings.TrimSpace(u.Name)
	if name == "" || utf8.RuneCountInString(name) > profile.MaxNameLen {
		return validationError("name must be between 1 and 100 characters", "name", u.Name)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return validationError("email is not a valid address", "email", u.Email)
	}
	return u.Body().Validate()
}

// UserUpdate holds the user fields that may change after registration.
// Nil fields are left untouched.
type UserUpdate struct {
	Name       *string  `json:"name,omitempty"`
	Age        *int     `json:"age,omitempty"`
	HeightCm   *float64 `json:"height_cm,omitempty"`
	WeightKg   *float64 `json:"weight_kg,omitempty"`
	HealthGoal *string  `json:"health_goal,omitempty"`
}

func (upd *UserUpdate) apply(u *User) {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Age != nil {
		u.Age = *upd.Age
	}
	if upd.HeightCm != nil {
		u.HeightCm = *upd.HeightCm
	}
	if upd.WeightKg != nil {
		u.WeightKg = *upd.WeightKg
	}
	if upd.HealthGoal != nil {
		u.HealthGoal = *upd.HealthGoal
	}
}

// Meal is a logged meal with the foods recognised in it
type Meal struct {
	ID             string                 `gorm:"primaryKey;size:36" json:"meal_id"`
	UserID         string                 `gorm:"size:36;not null;index:idx_meals_user_time,priority:1" json:"user_id"`
	MealType       string                 `gorm:"size:16;not null" json:"meal_type"`
	DetectedFoods  []recognition.FoodItem `gorm:"serializer:json" json:"detected_foods"`
	TotalNutrition catalog.Nutrients      `gorm:"embedded;embeddedPrefix:total_" json:"total_nutrition"`
	ImagePath      string                 `json:"image_path,omitempty"`
	Notes          string                 `gorm:"size:500" json:"notes,omitempty"`
	Alerts         []string               `gorm:"serializer:json" json:"alerts"`
	Timestamp      time.Time              `gorm:"not null;index:idx_meals_user_time,priority:2" json:"timestamp"`
}

// ValidMealType reports whether t is a known meal type
func ValidMealType(t string) bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// Validate checks the meal's fields
func (m *Meal) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return validationError("user_id is required", "user_id", m.UserID)
	}
	if !ValidMealType(m.MealType) {
		return validationError("meal_type must be one of breakfast, lunch, dinner, snack", "meal_type", m.MealType)
	}
	if utf8.RuneCountInString(m.Notes) > MaxNotesLength {
		return validationError("notes must be at most 500 characters", "notes", utf8.RuneCountInString(m.Notes))
	}
	return nil
}

// MealFilter narrows a meal history query
type MealFilter struct {
	MealType string
	From     time.Time // inclusive, zero for no lower bound
	To       time.Time // inclusive, zero for no upper bound
	Limit    int
	Offset   int
}

// Default history page size
const DefaultHistoryLimit = 10

// DailySummary is the nutrition total of one user's day
type DailySummary struct {
	UserID            string  `json:"user_id"`
	Date              string  `json:"date"`
	TotalCalories     float64 `json:"total_calories"`
	TotalProtein      float64 `json:"total_protein"`
	TotalCarbs        float64 `json:"total_carbs"`
	TotalFat          float64 `json:"total_fat"`
	TotalFiber        float64 `json:"total_fiber"`
	MealsCount        int     `json:"meals_count"`
	BreakfastCalories float64 `json:"breakfast_calories"`
	LunchCalories     float64 `json:"lunch_calories"`
	DinnerCalories    float64 `json:"dinner_calories"`
	SnackCalories     float64 `json:"snack_calories"`
}
