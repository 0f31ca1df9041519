// Package recognition orchestrates the meal photo pipeline: classification,
// portion estimation, nutrition aggregation, health advice and explanation.
package recognition

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/nutritive-go/internal/advisor"
	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/classifier"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/explain"
	"github.com/tphakala/nutritive-go/internal/imaging"
	"github.com/tphakala/nutritive-go/internal/logger"
	"github.com/tphakala/nutritive-go/internal/nutrition"
	"github.com/tphakala/nutritive-go/internal/observability/metrics"
	"github.com/tphakala/nutritive-go/internal/portion"
)

// Pipeline turns meal photos into nutrition reports. It holds no per-request
// state and is safe for concurrent use.
type Pipeline struct {
	catalog    *catalog.Catalog
	classifier classifier.Classifier
	plates     *imaging.PlateDetector
	metrics    *metrics.RecognitionMetrics
	now        func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMetrics records recognitions on m
func WithMetrics(m *metrics.RecognitionMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithPlateDetector replaces the default plate detector
func WithPlateDetector(d *imaging.PlateDetector) Option {
	return func(p *Pipeline) {
		if d != nil {
			p.plates = d
		}
	}
}

// WithClock replaces time.Now for the processed-at timestamp
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline creates a pipeline over a catalog and a classifier
func NewPipeline(cat *catalog.Catalog, c classifier.Classifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		catalog:    cat,
		classifier: c,
		plates:     imaging.NewPlateDetector(0, 0),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog returns the catalog the pipeline resolves foods against
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.catalog
}

// RecognizeBytes decodes data and recognises the meal in it
func (p *Pipeline) RecognizeBytes(ctx context.Context, data []byte, profile *advisor.Profile) (*Result, error) {
	photo, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	return p.Recognize(ctx, photo, profile)
}

// Recognize produces the nutrition report of photo. A nil profile skips the
// personalised alerts. Classification, quality assessment and plate
// detection run concurrently; cancelling ctx discards all partial results.
func (p *Pipeline) Recognize(ctx context.Context, photo *imaging.Photo, profile *advisor.Profile) (*Result, error) {
	if photo == nil || photo.Image == nil {
		return nil, errors.Newf("no decoded image to recognise").
			Component("recognition").
			Category(errors.CategoryImageUnreadable).
			Build()
	}

	log := GetLogger().WithContext(ctx)
	start := time.Now()
	defer p.metrics.TrackActive()()

	var (
		detections    []classifier.Detection
		strategy      = p.classifier.Name()
		quality       float64
		plateDiameter float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, used, err := classifier.Classify(gctx, p.classifier, photo)
		if err != nil {
			return err
		}
		detections, strategy = found, used
		return nil
	})
	g.Go(func() error {
		quality = imaging.AssessQuality(photo.Image)
		return nil
	})
	g.Go(func() error {
		plateDiameter = p.plates.Diameter(photo.Image)
		return nil
	})

	if err := g.Wait(); err != nil {
		p.metrics.RecordRecognition(strategy, time.Since(start), err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		p.metrics.RecordRecognition(strategy, time.Since(start), err)
		return nil, err
	}

	if len(detections) == 0 {
		err := errors.Newf("no food detected in image").
			Component("recognition").
			Category(errors.CategoryNoFoodDetected).
			Context("classifier", strategy).
			Build()
		p.metrics.RecordRecognition(strategy, time.Since(start), err)
		return nil, err
	}

	result := p.assemble(ctx, detections, plateDiameter, profile)
	result.Strategy = strategy
	result.ImageQuality = quality
	result.PlateDiameterCm = plateDiameter
	result.ProcessedAt = p.now().UTC()

	elapsed := time.Since(start)
	p.metrics.RecordRecognition(strategy, elapsed, nil)
	p.metrics.RecordMeal(result.FoodIDs(), result.TotalNutrition.Calories, quality)

	log.Info("meal recognised",
		logger.String("classifier", strategy),
		logger.Int("foods", len(result.DetectedFoods)),
		logger.Float64("calories", result.TotalNutrition.Calories),
		logger.Float64("image_quality", quality),
		logger.Duration("elapsed", elapsed))

	return result, nil
}

// assemble runs the deterministic stages over the classifier output
func (p *Pipeline) assemble(ctx context.Context, detections []classifier.Detection, plateDiameter float64, profile *advisor.Profile) *Result {
	items := make([]FoodItem, 0, len(detections))
	perItem := make([]catalog.Nutrients, 0, len(detections))
	trace := make([]explain.Item, 0, len(detections))

	for _, d := range detections {
		if !p.catalog.Contains(d.FoodID) {
			unresolved := errors.Newf("detected food %q is not in the catalog", d.FoodID).
				Component("recognition").
				Category(errors.CategoryUnresolvedFood).
				Priority(errors.PriorityLow).
				Context("food_id", d.FoodID).
				Build()
			GetLogger().WithContext(ctx).Warn("food contributes no nutrition", logger.Error(unresolved))
		}

		est := portion.ForDetection(p.catalog, d, plateDiameter)
		n := nutrition.ScaleID(p.catalog, d.FoodID, est.Grams)

		items = append(items, FoodItem{
			Detection:          d,
			Category:           est.Category,
			EstimatedGrams:     est.Grams,
			PortionExplanation: est.Explanation,
			Nutrition:          n,
		})
		perItem = append(perItem, n)
		trace = append(trace, explain.Item{FoodID: d.FoodID, Name: d.Name, Grams: est.Grams})
	}

	totals := nutrition.Aggregate(perItem)
	return &Result{
		DetectedFoods:   items,
		TotalNutrition:  totals,
		HealthAlerts:    advisor.Alerts(totals, profile),
		NutritionAdvice: advisor.Advice(totals),
		Explanation:     explain.Explain(trace, p.catalog),
	}
}
