// internal/api/v2/api.go
package api

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/nutritive-go/internal/analytics"
	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/datastore"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/logger"
	"github.com/tphakala/nutritive-go/internal/observability"
	"github.com/tphakala/nutritive-go/internal/recognition"
)

// Cache lifetimes for read-mostly responses
const (
	defaultCacheExpiration = 5 * time.Minute
	cacheCleanupInterval   = 10 * time.Minute
)

// HeaderRequestID carries the per-request trace id
const HeaderRequestID = "X-Request-ID"

// Controller manages the API routes and handlers
type Controller struct {
	Echo      *echo.Echo
	Group     *echo.Group
	DS        datastore.Interface
	Pipeline  *recognition.Pipeline
	Analytics *analytics.Service
	Settings  *conf.Settings

	metrics    *observability.Metrics // nil disables request metrics
	queryCache *cache.Cache           // daily summaries, analytics, catalog listing
	startTime  time.Time
	now        func() time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithMetrics enables request and upload metrics and serves them on the metrics path
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithClock overrides the time source used for "today"
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New creates a new API controller and registers its routes on e.
func New(e *echo.Echo, ds datastore.Interface, pipeline *recognition.Pipeline, settings *conf.Settings, opts ...Option) (*Controller, error) {
	if pipeline == nil {
		return nil, errors.Newf("recognition pipeline is required").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if ds == nil {
		return nil, errors.Newf("datastore is required").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}

	c := &Controller{
		Echo:       e,
		DS:         ds,
		Pipeline:   pipeline,
		Settings:   settings,
		queryCache: cache.New(defaultCacheExpiration, cacheCleanupInterval),
		startTime:  time.Now(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Analytics = analytics.NewService(ds, analytics.WithClock(c.now))

	if dir := settings.WebServer.UploadDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(err).
				Component("api").
				Category(errors.CategoryFileIO).
				Context("upload_dir", dir).
				Build()
		}
	}

	e.HideBanner = true
	e.HTTPErrorHandler = c.httpErrorHandler

	c.Group = e.Group("/api/v2")

	c.Group.Use(middleware.Recover())
	c.Group.Use(c.TraceIDMiddleware())
	c.Group.Use(middleware.CORS())
	c.Group.Use(middleware.BodyLimit(fmt.Sprintf("%dM", max(settings.WebServer.UploadLimit, 1))))
	c.Group.Use(c.LoggingMiddleware())

	c.initRoutes()

	if c.metrics != nil && settings.Metrics.Enabled {
		path := settings.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(c.metrics.Handler()))
	}

	return c, nil
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.initFoodRoutes()
	c.initUserRoutes()
	c.initMealRoutes()
	c.initAnalyticsRoutes()
}

// HealthCheck handles the API health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"name":      c.Settings.Main.Name,
		"foods":     c.Pipeline.Catalog().Len(),
		"uptime":    time.Since(c.startTime).Round(time.Second).String(),
		"timestamp": c.now().UTC().Format(time.RFC3339),
	})
}

// TraceIDMiddleware tags each request with a trace id, taken from the
// X-Request-ID header when present, and puts it on the request context.
func (c *Controller) TraceIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			traceID := req.Header.Get(HeaderRequestID)
			if traceID == "" {
				traceID = uuid.NewString()
			}
			ctx.Response().Header().Set(HeaderRequestID, traceID)
			ctx.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), traceID)))
			return next(ctx)
		}
	}
}

// LoggingMiddleware logs API requests and records request metrics
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()

			err := next(ctx)
			if err != nil {
				// Let echo write the error so the status is known
				ctx.Error(err)
			}

			req := ctx.Request()
			res := ctx.Response()
			elapsed := time.Since(start)

			if c.metrics != nil {
				c.metrics.HTTP.RecordHTTPRequest(req.Method, ctx.Path(), res.Status, elapsed.Seconds())
			}

			GetLogger().WithContext(req.Context()).Info("API request",
				logger.String("method", req.Method),
				logger.String("path", req.URL.Path),
				logger.String("query", req.URL.RawQuery),
				logger.Int("status", res.Status),
				logger.String("ip", ctx.RealIP()),
				logger.Int64("latency_ms", elapsed.Milliseconds()))

			return nil
		}
	}
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a short random identifier for error tracking
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs an API error and writes the JSON error response
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	log := GetLogger().WithContext(ctx.Request().Context())
	fields := []logger.Field{
		logger.String("correlation_id", errorResp.CorrelationID),
		logger.String("message", message),
		logger.String("error", errorResp.Error),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Debug("API error", fields...)
	}

	return ctx.JSON(code, errorResp)
}

// HandleDomainError maps an error's category to an HTTP status
func (c *Controller) HandleDomainError(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, statusForError(err))
}

func statusForError(err error) int {
	switch {
	case errors.IsCategory(err, errors.CategoryValidation),
		errors.IsCategory(err, errors.CategoryConflict),
		errors.IsCategory(err, errors.CategoryImageUnreadable):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryNotFound):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryNoFoodDetected):
		return http.StatusUnprocessableEntity
	case errors.IsCategory(err, errors.CategoryTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// httpErrorHandler renders echo errors (unknown routes, body limit) in the API error format
func (c *Controller) httpErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	if ctx.Request().Method == http.MethodHead {
		_ = ctx.NoContent(code)
		return
	}
	_ = ctx.JSON(code, NewErrorResponse(nil, message, code))
}

// queryInt parses an optional integer query parameter
func queryInt(ctx echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Newf("%s must be an integer", name).
			Component("api").
			Category(errors.CategoryValidation).
			Context("value", raw).
			Build()
	}
	return v, nil
}

// queryIntMax is queryInt with an inclusive upper bound
func queryIntMax(ctx echo.Context, name string, def, limit int) (int, error) {
	v, err := queryInt(ctx, name, def)
	if err != nil {
		return 0, err
	}
	if v > limit {
		return 0, errors.Newf("%s must be at most %d", name, limit).
			Component("api").
			Category(errors.CategoryValidation).
			Context("value", v).
			Build()
	}
	return v, nil
}

// queryDate parses an optional YYYY-MM-DD (or RFC 3339) query parameter
func queryDate(ctx echo.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Newf("%s must be a date in YYYY-MM-DD format", name).
		Component("api").
		Category(errors.CategoryValidation).
		Context("value", raw).
		Build()
}
