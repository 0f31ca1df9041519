// Package classifier decides which catalog foods appear in a meal photo.
//
// Two strategies implement Classifier: VisionClassifier asks a hosted
// vision-language model and ColorClassifier compares coarse colour
// statistics against reference profiles. The vision strategy always wraps
// the colour strategy and falls back to it when the model is unavailable.
package classifier

import (
	"context"
	"math"
	"time"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/imaging"
	"github.com/tphakala/nutritive-go/internal/logger"
	"github.com/tphakala/nutritive-go/internal/nutrition"
)

// Strategy names reported in recognition results
const (
	StrategyColor  = "color"
	StrategyVision = "vision"
)

// DefaultTopK is the number of candidates the colour strategy returns
const DefaultTopK = 2

// defaultConfidence is used for the synthetic default detection
const defaultConfidence = 0.7

// BoundingBox is a normalized region of the photo. Coordinates are expected
// in [0,1] but are not validated.
type BoundingBox struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Area returns width times height
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// Detection is one recognised food candidate
type Detection struct {
	FoodID      string      `json:"food_id" yaml:"food_id"`
	Name        string      `json:"food_name" yaml:"food_name"`
	Confidence  float64     `json:"confidence" yaml:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box" yaml:"bounding_box"`
	Description string      `json:"ai_description,omitempty" yaml:"ai_description,omitempty"`
}

// Classifier returns a non-empty ranked list of detections for a photo
type Classifier interface {
	Classify(ctx context.Context, photo *imaging.Photo) ([]Detection, error)
	Name() string
}

// StrategyReporter is implemented by classifiers that may delegate to
// another strategy and can report which one produced the detections.
type StrategyReporter interface {
	ClassifyWithStrategy(ctx context.Context, photo *imaging.Photo) ([]Detection, string, error)
}

// Classify runs c and returns the detections together with the name of the
// strategy that produced them.
func Classify(ctx context.Context, c Classifier, photo *imaging.Photo) ([]Detection, string, error) {
	if r, ok := c.(StrategyReporter); ok {
		return r.ClassifyWithStrategy(ctx, photo)
	}
	detections, err := c.Classify(ctx, photo)
	return detections, c.Name(), err
}

// Observer receives classifier events, typically to feed metrics
type Observer interface {
	ObserveModelCall(model string, duration time.Duration, err error)
	ObserveFallback(reason string)
	ObserveUnresolved(rawID string)
}

type noopObserver struct{}

func (noopObserver) ObserveModelCall(string, time.Duration, error) {}
func (noopObserver) ObserveFallback(string)                         {}
func (noopObserver) ObserveUnresolved(string)                       {}

// New selects the classification strategy. A non-nil model yields a
// VisionClassifier wrapping the colour strategy, otherwise the colour
// strategy is used alone.
func New(cat *catalog.Catalog, topK int, model VisionModel, opts ...Option) Classifier {
	color := NewColorClassifier(cat, topK)
	if model == nil {
		GetLogger().Info("using colour classifier", logger.Int("top_k", color.topK))
		return color
	}
	GetLogger().Info("using vision classifier",
		logger.String("model", model.Name()),
		logger.Int("catalog_size", cat.Len()))
	return NewVisionClassifier(cat, model, color, opts...)
}

// DefaultDetection is returned when a strategy produces nothing usable
func DefaultDetection(cat *catalog.Catalog) Detection {
	return Detection{
		FoodID:      catalog.DefaultFoodID,
		Name:        cat.DisplayName(catalog.DefaultFoodID),
		Confidence:  defaultConfidence,
		BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8},
	}
}

func round3(v float64) float64 {
	return nutrition.Round(v, 3)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
