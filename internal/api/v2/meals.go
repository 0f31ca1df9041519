package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/datastore"
	"github.com/tphakala/nutritive-go/internal/recognition"
)

// initMealRoutes registers the meal logging endpoints. Routes under
// /meals/:id take a meal id, except history and daily-summary which take a
// user id.
func (c *Controller) initMealRoutes() {
	mealGroup := c.Group.Group("/meals")

	mealGroup.POST("", c.LogMeal)
	mealGroup.GET("/:id", c.GetMeal)
	mealGroup.DELETE("/:id", c.DeleteMeal)
	mealGroup.GET("/:id/history", c.GetMealHistory)
	mealGroup.GET("/:id/daily-summary", c.GetDailySummary)
}

// LogMealRequest is the body of POST /meals
type LogMealRequest struct {
	UserID         string                 `json:"user_id"`
	MealType       string                 `json:"meal_type"`
	DetectedFoods  []recognition.FoodItem `json:"detected_foods"`
	TotalNutrition catalog.Nutrients      `json:"total_nutrition"`
	ImagePath      string                 `json:"image_path"`
	Notes          string                 `json:"notes"`
	Alerts         []string               `json:"alerts"`
}

// LogMeal handles POST /api/v2/meals
func (c *Controller) LogMeal(ctx echo.Context) error {
	var req LogMealRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	meal := &datastore.Meal{
		UserID:         strings.TrimSpace(req.UserID),
		MealType:       req.MealType,
		DetectedFoods:  req.DetectedFoods,
		TotalNutrition: req.TotalNutrition,
		ImagePath:      req.ImagePath,
		Notes:          req.Notes,
		Alerts:         req.Alerts,
	}
	if meal.DetectedFoods == nil {
		meal.DetectedFoods = []recognition.FoodItem{}
	}

	if err := c.DS.SaveMeal(ctx.Request().Context(), meal); err != nil {
		return c.HandleDomainError(ctx, err, "Failed to log meal")
	}

	c.invalidateUser(meal.UserID)
	return ctx.JSON(http.StatusCreated, map[string]any{
		"message": "Meal logged successfully",
		"meal":    meal,
	})
}

// GetMeal handles GET /api/v2/meals/:id
func (c *Controller) GetMeal(ctx echo.Context) error {
	meal, err := c.DS.GetMeal(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleDomainError(ctx, err, "Meal not found")
	}
	return ctx.JSON(http.StatusOK, meal)
}

// DeleteMeal handles DELETE /api/v2/meals/:id
func (c *Controller) DeleteMeal(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id := ctx.Param("id")

	meal, err := c.DS.GetMeal(reqCtx, id)
	if err != nil {
		return c.HandleDomainError(ctx, err, "Meal not found")
	}
	if err := c.DS.DeleteMeal(reqCtx, id); err != nil {
		return c.HandleDomainError(ctx, err, "Failed to delete meal")
	}

	c.invalidateUser(meal.UserID)
	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "Meal deleted successfully",
		"meal_id": id,
	})
}

// MealHistoryResponse is one page of a user's meal history
type MealHistoryResponse struct {
	UserID     string           `json:"user_id"`
	TotalMeals int64            `json:"total_meals"`
	Returned   int              `json:"returned"`
	Meals      []datastore.Meal `json:"meals"`
}

// GetMealHistory handles GET /api/v2/meals/:id/history with the optional
// query parameters limit, offset, meal_type, date_from and date_to.
func (c *Controller) GetMealHistory(ctx echo.Context) error {
	userID := ctx.Param("id")

	limit, err := queryInt(ctx, "limit", datastore.DefaultHistoryLimit)
	if err != nil {
		return c.HandleDomainError(ctx, err, "Invalid limit")
	}
	offset, err := queryInt(ctx, "offset", 0)
	if err != nil {
		return c.HandleDomainError(ctx, err, "Invalid offset")
	}
	from, err := queryDate(ctx, "date_from")
	if err != nil {
		return c.HandleDomainError(ctx, err, "Invalid date_from")
	}
	to, err := queryDate(ctx, "date_to")
	if err != nil {
		return c.HandleDomainError(ctx, err, "Invalid date_to")
	}

	meals, total, err := c.DS.MealHistory(ctx.Request().Context(), userID, datastore.MealFilter{
		MealType: ctx.QueryParam("meal_type"),
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return c.HandleDomainError(ctx, err, "Failed to get meal history")
	}

	return ctx.JSON(http.StatusOK, &MealHistoryResponse{
		UserID:     userID,
		TotalMeals: total,
		Returned:   len(meals),
		Meals:      meals,
	})
}

// GetDailySummary handles GET /api/v2/meals/:id/daily-summary?date=YYYY-MM-DD
func (c *Controller) GetDailySummary(ctx echo.Context) error {
	userID := ctx.Param("id")

	day, err := queryDate(ctx, "date")
	if err != nil {
		return c.HandleDomainError(ctx, err, "Invalid date")
	}
	if day.IsZero() {
		day = c.now()
	}

	key := userCacheKey(userID, "daily", day.UTC().Format(time.DateOnly))
	if cached, found := c.queryCache.Get(key); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	summary, err := c.DS.DailySummary(ctx.Request().Context(), userID, day)
	if err != nil {
		return c.HandleDomainError(ctx, err, "Failed to get daily summary")
	}

	c.queryCache.SetDefault(key, summary)
	return ctx.JSON(http.StatusOK, summary)
}
