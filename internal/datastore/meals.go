package datastore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/nutritive-go/internal/logger"
	"github.com/tphakala/nutritive-go/internal/nutrition"
	"github.com/tphakala/nutritive-go/internal/observability/metrics"
)

// SaveMeal validates and stores a meal. The id and timestamp are assigned
// when empty; timestamps are stored in UTC.
func (ds *DataStore) SaveMeal(ctx context.Context, meal *Meal) (err error) {
	defer ds.track(metrics.OpMealCreate, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpMealCreate)
	if err != nil {
		return err
	}
	if err := meal.Validate(); err != nil {
		return err
	}

	if meal.ID == "" {
		meal.ID = uuid.NewString()
	}
	if meal.Timestamp.IsZero() {
		meal.Timestamp = ds.clock()
	}
	meal.Timestamp = meal.Timestamp.UTC()
	if meal.Alerts == nil {
		meal.Alerts = []string{}
	}

	if err := db.Create(meal).Error; err != nil {
		return dbError(err, metrics.OpMealCreate, "meal_id", meal.ID, "user_id", meal.UserID)
	}

	GetLogger().Debug("meal saved",
		logger.String("meal_id", meal.ID),
		logger.String("user_id", meal.UserID),
		logger.String("meal_type", meal.MealType),
		logger.Int("foods", len(meal.DetectedFoods)))
	return nil
}

// GetMeal returns the meal with the given id
func (ds *DataStore) GetMeal(ctx context.Context, id string) (meal *Meal, err error) {
	defer ds.track(metrics.OpMealGet, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpMealGet)
	if err != nil {
		return nil, err
	}

	var m Meal
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return nil, lookupError(err, "Meal", id, metrics.OpMealGet)
	}
	return &m, nil
}

// DeleteMeal removes a meal
func (ds *DataStore) DeleteMeal(ctx context.Context, id string) (err error) {
	defer ds.track(metrics.OpMealDelete, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpMealDelete)
	if err != nil {
		return err
	}

	res := db.Delete(&Meal{}, "id = ?", id)
	if res.Error != nil {
		return dbError(res.Error, metrics.OpMealDelete, "meal_id", id)
	}
	if res.RowsAffected == 0 {
		return notFoundError("Meal", id)
	}
	return nil
}

// MealHistory returns one page of a user's meals, newest first, and the
// number of meals matching the filter before paging.
func (ds *DataStore) MealHistory(ctx context.Context, userID string, filter MealFilter) (meals []Meal, total int64, err error) {
	defer ds.track(metrics.OpMealHistory, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpMealHistory)
	if err != nil {
		return nil, 0, err
	}
	if filter.MealType != "" && !ValidMealType(filter.MealType) {
		return nil, 0, validationError("meal_type must be one of breakfast, lunch, dinner, snack", "meal_type", filter.MealType)
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultHistoryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	query := db.Model(&Meal{}).Where("user_id = ?", userID)
	if filter.MealType != "" {
		query = query.Where("meal_type = ?", filter.MealType)
	}
	if !filter.From.IsZero() {
		query = query.Where("timestamp >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query = query.Where("timestamp <= ?", filter.To.UTC())
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, dbError(err, metrics.OpMealHistory, "user_id", userID)
	}

	meals = []Meal{}
	if err := query.Order("timestamp DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&meals).Error; err != nil {
		return nil, 0, dbError(err, metrics.OpMealHistory, "user_id", userID)
	}
	return meals, total, nil
}

// MealsBetween returns a user's meals with from <= timestamp < to, oldest first
func (ds *DataStore) MealsBetween(ctx context.Context, userID string, from, to time.Time) (meals []Meal, err error) {
	defer ds.track(metrics.OpMealRange, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpMealRange)
	if err != nil {
		return nil, err
	}

	meals = []Meal{}
	err = db.Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, from.UTC(), to.UTC()).
		Order("timestamp ASC").
		Find(&meals).Error
	if err != nil {
		return nil, dbError(err, metrics.OpMealRange, "user_id", userID)
	}
	return meals, nil
}

// HasMeals reports whether the user has logged any meal
func (ds *DataStore) HasMeals(ctx context.Context, userID string) (found bool, err error) {
	defer ds.track(metrics.OpMealRange, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpMealRange)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&Meal{}).Where("user_id = ?", userID).Limit(1).Count(&count).Error; err != nil {
		return false, dbError(err, metrics.OpMealRange, "user_id", userID)
	}
	return count > 0, nil
}

// mealTypeTotals is one row of the per meal type daily aggregation
type mealTypeTotals struct {
	MealType string
	Meals    int
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
	Fiber    float64
}

// DailySummary totals the meals a user logged on the UTC calendar day of day
func (ds *DataStore) DailySummary(ctx context.Context, userID string, day time.Time) (summary *DailySummary, err error) {
	defer ds.track(metrics.OpDailySummary, time.Now(), &err)

	db, err := ds.ready(ctx, metrics.OpDailySummary)
	if err != nil {
		return nil, err
	}

	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var rows []mealTypeTotals
	err = db.Model(&Meal{}).
		Select("meal_type, COUNT(*) AS meals, "+
			"SUM(total_calories) AS calories, SUM(total_protein) AS protein, "+
			"SUM(total_carbs) AS carbs, SUM(total_fat) AS fat, SUM(total_fiber) AS fiber").
		Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, start, end).
		Group("meal_type").
		Scan(&rows).Error
	if err != nil {
		return nil, dbError(err, metrics.OpDailySummary, "user_id", userID)
	}

	summary = &DailySummary{UserID: userID, Date: start.Format(time.DateOnly)}
	for _, r := range rows {
		summary.MealsCount += r.Meals
		summary.TotalCalories += r.Calories
		summary.TotalProtein += r.Protein
		summary.TotalCarbs += r.Carbs
		summary.TotalFat += r.Fat
		summary.TotalFiber += r.Fiber

		switch r.MealType {
		case MealBreakfast:
			summary.BreakfastCalories += r.Calories
		case MealLunch:
			summary.LunchCalories += r.Calories
		case MealDinner:
			summary.DinnerCalories += r.Calories
		case MealSnack:
			summary.SnackCalories += r.Calories
		}
	}

	summary.TotalCalories = nutrition.Round1(summary.TotalCalories)
	summary.TotalProtein = nutrition.Round1(summary.TotalProtein)
	summary.TotalCarbs = nutrition.Round1(summary.TotalCarbs)
	summary.TotalFat = nutrition.Round1(summary.TotalFat)
	summary.TotalFiber = nutrition.Round1(summary.TotalFiber)
	summary.BreakfastCalories = nutrition.Round1(summary.BreakfastCalories)
	summary.LunchCalories = nutrition.Round1(summary.LunchCalories)
	summary.DinnerCalories = nutrition.Round1(summary.DinnerCalories)
	summary.SnackCalories = nutrition.Round1(summary.SnackCalories)
	return summary, nil
}
