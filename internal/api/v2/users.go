package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/nutritive-go/internal/datastore"
	"github.com/tphakala/nutritive-go/internal/profile"
)

// initUserRoutes registers the user profile endpoints
func (c *Controller) initUserRoutes() {
	userGroup := c.Group.Group("/users")

	userGroup.POST("", c.CreateUser)
	userGroup.GET("", c.ListUsers)
	userGroup.GET("/:id", c.GetUser)
	userGroup.PUT("/:id", c.UpdateUser)
	userGroup.DELETE("/:id", c.DeleteUser)
	userGroup.GET("/:id/health-metrics", c.GetHealthMetrics)
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Age        int     `json:"age"`
	Gender     string  `json:"gender"`
	HeightCm   float64 `json:"height_cm"`
	WeightKg   float64 `json:"weight_kg"`
	HealthGoal string  `json:"health_goal"`
}

// UserResponse is a stored user with its derived targets
type UserResponse struct {
	*datastore.User
	BMI                 float64 `json:"bmi"`
	DailyCalorieTarget  int     `json:"daily_calorie_target"`
	DailyProteinTargetG int     `json:"daily_protein_target_g"`
}

func newUserResponse(u *datastore.User) *UserResponse {
	body := u.Body()
	return &UserResponse{
		User:                u,
		BMI:                 body.BMI(),
		DailyCalorieTarget:  body.DailyCalorieTarget(),
		DailyProteinTargetG: body.DailyProteinTarget(),
	}
}

// CreateUser handles POST /api/v2/users
func (c *Controller) CreateUser(ctx echo.Context) error {
	var req CreateUserRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	user := &datastore.User{
		Name:       req.Name,
		Email:      req.Email,
		Age:        req.Age,
		Gender:     req.Gender,
		HeightCm:   req.HeightCm,
		WeightKg:   req.WeightKg,
		HealthGoal: req.HealthGoal,
	}
	if err := c.DS.CreateUser(ctx.Request().Context(), user); err != nil {
		return c.HandleDomainError(ctx, err, "Failed to create user")
	}

	return ctx.JSON(http.StatusCreated, newUserResponse(user))
}

// GetUser handles GET /api/v2/users/:id
func (c *Controller) GetUser(ctx echo.Context) error {
	user, err := c.DS.GetUser(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleDomainError(ctx, err, "User not found")
	}
	return ctx.JSON(http.StatusOK, newUserResponse(user))
}

// UpdateUser handles PUT /api/v2/users/:id
func (c *Controller) UpdateUser(ctx echo.Context) error {
	var upd datastore.UserUpdate
	if err := ctx.Bind(&upd); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	id := ctx.Param("id")
	user, err := c.DS.UpdateUser(ctx.Request().Context(), id, &upd)
	if err != nil {
		return c.HandleDomainError(ctx, err, "Failed to update user")
	}

	c.invalidateUser(id)
	return ctx.JSON(http.StatusOK, newUserResponse(user))
}

// DeleteUser handles DELETE /api/v2/users/:id
func (c *Controller) DeleteUser(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := c.DS.DeleteUser(ctx.Request().Context(), id); err != nil {
		return c.HandleDomainError(ctx, err, "Failed to delete user")
	}

	c.invalidateUser(id)
	return ctx.JSON(http.StatusOK, map[string]string{
		"message": "User deleted successfully",
		"user_id": id,
	})
}

// ListUsers handles GET /api/v2/users
func (c *Controller) ListUsers(ctx echo.Context) error {
	users, err := c.DS.ListUsers(ctx.Request().Context())
	if err != nil {
		return c.HandleDomainError(ctx, err, "Failed to list users")
	}

	out := make([]*UserResponse, len(users))
	for i := range users {
		out[i] = newUserResponse(&users[i])
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"total_users": len(out),
		"users":       out,
	})
}

// HealthMetricsResponse is the health report of a user
type HealthMetricsResponse struct {
	UserID string `json:"user_id"`
	profile.HealthMetrics
}

// GetHealthMetrics handles GET /api/v2/users/:id/health-metrics
func (c *Controller) GetHealthMetrics(ctx echo.Context) error {
	user, err := c.DS.GetUser(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleDomainError(ctx, err, "User not found")
	}
	return ctx.JSON(http.StatusOK, &HealthMetricsResponse{
		UserID:        user.ID,
		HealthMetrics: user.Body().Metrics(),
	})
}
