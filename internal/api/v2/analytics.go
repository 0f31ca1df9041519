package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/nutritive-go/internal/analytics"
)

// initAnalyticsRoutes registers the nutrition analytics endpoints
func (c *Controller) initAnalyticsRoutes() {
	analyticsGroup := c.Group.Group("/analytics")

	analyticsGroup.GET("/:id/weekly-summary", c.GetWeeklySummary)
	analyticsGroup.GET("/:id/macro-distribution", c.GetMacroDistribution)
	analyticsGroup.GET("/:id/goal-progress", c.GetGoalProgress)
	analyticsGroup.GET("/:id/food-frequency", c.GetFoodFrequency)
}

// GetWeeklySummary handles GET /api/v2/analytics/:id/weekly-summary?weeks=N
func (c *Controller) GetWeeklySummary(ctx echo.Context) error {
	weeks, err := queryIntMax(ctx, "weeks", analytics.DefaultWeeks, analytics.MaxWeeks)
	if err != nil {
		return c.HandleDomainError(ctx, err, "Invalid weeks")
	}

	userID := ctx.Param("id")
	return c.cachedAnalytics(ctx, userCacheKey(userID, "weekly", strconv.Itoa(weeks)), func() (any, error) {
		return c.Analytics.WeeklySummary(ctx.Request().Context(), userID, weeks)
	}, "Failed to get weekly summary")
}

// GetMacroDistribution handles GET /api/v2/analytics/:id/macro-distribution?days=N
func (c *Controller) GetMacroDistribution(ctx echo.Context) error {
	days, err := queryIntMax(ctx, "days", analytics.DefaultMacroDays, analytics.MaxDays)
	if err != nil {
		return c.HandleDomainError(ctx, err, "Invalid days")
	}

	userID := ctx.Param("id")
	return c.cachedAnalytics(ctx, userCacheKey(userID, "macros", strconv.Itoa(days)), func() (any, error) {
		return c.Analytics.MacroDistribution(ctx.Request().Context(), userID, days)
	}, "No data found for user")
}

// GetGoalProgress handles GET /api/v2/analytics/:id/goal-progress
func (c *Controller) GetGoalProgress(ctx echo.Context) error {
	userID := ctx.Param("id")
	return c.cachedAnalytics(ctx, userCacheKey(userID, "goal"), func() (any, error) {
		return c.Analytics.GoalProgress(ctx.Request().Context(), userID)
	}, "User not found")
}

// GetFoodFrequency handles GET /api/v2/analytics/:id/food-frequency?days=N
func (c *Controller) GetFoodFrequency(ctx echo.Context) error {
	days, err := queryIntMax(ctx, "days", analytics.DefaultFrequencyDays, analytics.MaxDays)
	if err != nil {
		return c.HandleDomainError(ctx, err, "Invalid days")
	}

	userID := ctx.Param("id")
	return c.cachedAnalytics(ctx, userCacheKey(userID, "frequency", strconv.Itoa(days)), func() (any, error) {
		return c.Analytics.FoodFrequency(ctx.Request().Context(), userID, days)
	}, "Failed to get food frequency")
}

// cachedAnalytics serves key from the query cache or computes and caches it.
// Keys are scoped to the current UTC day since every window ends today.
func (c *Controller) cachedAnalytics(ctx echo.Context, key string, compute func() (any, error), failure string) error {
	key += ":" + c.now().UTC().Format(time.DateOnly)
	if cached, found := c.queryCache.Get(key); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	result, err := compute()
	if err != nil {
		return c.HandleDomainError(ctx, err, failure)
	}

	c.queryCache.SetDefault(key, result)
	return ctx.JSON(http.StatusOK, result)
}

// userCacheKey builds a query cache key scoped to one user
func userCacheKey(userID string, parts ...string) string {
	return "user:" + userID + ":" + strings.Join(parts, ":")
}

// invalidateUser drops every cached response of a user
func (c *Controller) invalidateUser(userID string) {
	prefix := userCacheKey(userID)
	for key := range c.queryCache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.queryCache.Delete(key)
		}
	}
}
