package api

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/nutritive-go/internal/advisor"
	"github.com/tphakala/nutritive-go/internal/datastore"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/logger"
	"github.com/tphakala/nutritive-go/internal/recognition"
)

const supportedFoodsCacheKey = "food:supported"

// initFoodRoutes registers the food recognition endpoints
func (c *Controller) initFoodRoutes() {
	foodGroup := c.Group.Group("/food")

	foodGroup.POST("/recognize", c.RecognizeFood)
	foodGroup.GET("/supported", c.GetSupportedFoods)
	foodGroup.GET("/:id", c.GetFoodInfo)
}

// RecognizeResponse is the recognition report returned to API clients
type RecognizeResponse struct {
	Success bool `json:"success"`
	*recognition.Result
	ImagePath string `json:"image_path,omitempty"`
	MealID    string `json:"meal_id,omitempty"`
}

// RecognizeFood handles POST /api/v2/food/recognize. The multipart form
// carries the photo in "file", an optional "user_id" for personalised
// alerts and an optional "meal_type" that logs the result as a meal.
func (c *Controller) RecognizeFood(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return c.HandleError(ctx, err, "Image file is required", http.StatusBadRequest)
	}
	if ct := fileHeader.Header.Get(echo.HeaderContentType); ct != "" && !strings.HasPrefix(ct, "image/") {
		return c.HandleError(ctx, nil, "File must be an image", http.StatusBadRequest)
	}

	data, err := readUpload(fileHeader)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read uploaded file", http.StatusBadRequest)
	}
	if c.metrics != nil {
		c.metrics.HTTP.RecordUpload(int64(len(data)))
	}

	reqCtx := ctx.Request().Context()
	userID := strings.TrimSpace(ctx.FormValue("user_id"))
	mealType := strings.TrimSpace(ctx.FormValue("meal_type"))
	if mealType != "" {
		if userID == "" {
			return c.HandleError(ctx, nil, "user_id is required to log a meal", http.StatusBadRequest)
		}
		if !datastore.ValidMealType(mealType) {
			return c.HandleError(ctx, nil, "meal_type must be one of breakfast, lunch, dinner, snack", http.StatusBadRequest)
		}
	}

	var profile *advisor.Profile
	if userID != "" {
		user, err := c.DS.GetUser(reqCtx, userID)
		if err != nil {
			return c.HandleDomainError(ctx, err, "User not found")
		}
		profile = user.Body().AdvisorProfile()
	}

	result, err := c.Pipeline.RecognizeBytes(reqCtx, data, profile)
	if err != nil {
		switch {
		case errors.IsCategory(err, errors.CategoryImageUnreadable):
			return c.HandleError(ctx, err, "Could not read image", http.StatusBadRequest)
		case errors.IsCategory(err, errors.CategoryNoFoodDetected):
			return c.HandleError(ctx, err, "No food detected in image", http.StatusUnprocessableEntity)
		default:
			return c.HandleDomainError(ctx, err, "Error processing image")
		}
	}

	resp := &RecognizeResponse{Success: true, Result: result}
	resp.ImagePath = c.keepUpload(reqCtx, fileHeader.Filename, data)

	if mealType != "" {
		meal := &datastore.Meal{
			UserID:         userID,
			MealType:       mealType,
			DetectedFoods:  result.DetectedFoods,
			TotalNutrition: result.TotalNutrition,
			ImagePath:      resp.ImagePath,
			Alerts:         result.HealthAlerts,
		}
		if err := c.DS.SaveMeal(reqCtx, meal); err != nil {
			return c.HandleDomainError(ctx, err, "Failed to log meal")
		}
		c.invalidateUser(userID)
		resp.MealID = meal.ID
	}

	return ctx.JSON(http.StatusOK, resp)
}

// readUpload reads an uploaded multipart file into memory
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// keepUpload stores the photo under a fresh name in the upload directory and
// returns that name. Failures are logged and yield an empty name.
func (c *Controller) keepUpload(ctx context.Context, original string, data []byte) string {
	dir := c.Settings.WebServer.UploadDir
	if dir == "" {
		return ""
	}

	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		GetLogger().WithContext(ctx).Warn("failed to keep uploaded photo",
			logger.String("dir", dir),
			logger.Error(err))
		return ""
	}
	return name
}

// SupportedFood is the catalog listing entry of one food
type SupportedFood struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	CaloriesPer100g float64  `json:"calories_per_100g"`
	HealthTags      []string `json:"health_tags"`
	Warnings        []string `json:"warnings"`
}

// SupportedFoodsResponse lists the catalog
type SupportedFoodsResponse struct {
	TotalFoods int             `json:"total_foods"`
	Foods      []SupportedFood `json:"foods"`
}

// GetSupportedFoods handles GET /api/v2/food/supported
func (c *Controller) GetSupportedFoods(ctx echo.Context) error {
	if cached, found := c.queryCache.Get(supportedFoodsCacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	cat := c.Pipeline.Catalog()
	foods := cat.Foods()
	resp := &SupportedFoodsResponse{TotalFoods: len(foods), Foods: make([]SupportedFood, 0, len(foods))}
	for i := range foods {
		f := &foods[i]
		tags, warnings := advisor.FoodTags(cat, f.ID)
		resp.Foods = append(resp.Foods, SupportedFood{
			ID:              f.ID,
			Name:            cat.DisplayName(f.ID),
			Category:        f.Category,
			CaloriesPer100g: f.Per100g.Calories,
			HealthTags:      tags,
			Warnings:        warnings,
		})
	}

	c.queryCache.SetDefault(supportedFoodsCacheKey, resp)
	return ctx.JSON(http.StatusOK, resp)
}

// GetFoodInfo handles GET /api/v2/food/:id
func (c *Controller) GetFoodInfo(ctx echo.Context) error {
	id := ctx.Param("id")
	food, ok := c.Pipeline.Catalog().Lookup(id)
	if !ok {
		return c.HandleError(ctx, nil, "Food '"+id+"' not found", http.StatusNotFound)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"food": food})
}
