package classifier

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/imaging"
)

// colorProfile is the typical mean RGB of a food, channels in [0,1]
type colorProfile struct {
	r, g, b float64
}

var referenceProfiles = map[string]colorProfile{
	"idli":        {0.85, 0.85, 0.80},
	"dosa":        {0.70, 0.60, 0.40},
	"masala_dosa": {0.68, 0.58, 0.38},
	"biryani":     {0.65, 0.55, 0.35},
	"dal":         {0.75, 0.65, 0.30},
	"sambar":      {0.60, 0.45, 0.25},
	"rice":        {0.90, 0.90, 0.85},
	"chapati":     {0.75, 0.70, 0.55},
	"vada":        {0.60, 0.50, 0.30},
	"pongal":      {0.80, 0.75, 0.50},
	"paratha":     {0.72, 0.67, 0.52},
	"upma":        {0.78, 0.70, 0.45},
}

// fallbackFoods are offered when no catalog entry has a colour profile
var fallbackFoods = []string{"rice", "dal", "chapati"}

const (
	minColorConfidence      = 0.5
	fallbackColorConfidence = 0.65
)

// ColorClassifier ranks catalog foods by the distance between the photo's
// mean colour and each food's reference profile.
type ColorClassifier struct {
	catalog *catalog.Catalog
	topK    int
}

// NewColorClassifier creates a colour classifier returning at most topK
// candidates. Non-positive topK selects DefaultTopK.
func NewColorClassifier(cat *catalog.Catalog, topK int) *ColorClassifier {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ColorClassifier{catalog: cat, topK: topK}
}

// Name implements Classifier
func (c *ColorClassifier) Name() string { return StrategyColor }

// Classify implements Classifier
func (c *ColorClassifier) Classify(ctx context.Context, photo *imaging.Photo) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if photo == nil || photo.Image == nil {
		return nil, errors.Newf("no decoded image to classify").
			Component("classifier").
			Category(errors.CategoryImageUnreadable).
			Build()
	}
	return c.ClassifyStats(imaging.ComputeColorStats(photo.Image)), nil
}

// ClassifyStats ranks foods for precomputed colour statistics
func (c *ColorClassifier) ClassifyStats(stats imaging.ColorStats) []Detection {
	type candidate struct {
		id         string
		confidence float64
	}

	var candidates []candidate
	for _, id := range c.catalog.IDs() {
		profile, ok := referenceProfiles[id]
		if !ok {
			continue
		}
		dist := math.Sqrt(
			(stats.MeanR-profile.r)*(stats.MeanR-profile.r) +
				(stats.MeanG-profile.g)*(stats.MeanG-profile.g) +
				(stats.MeanB-profile.b)*(stats.MeanB-profile.b))
		candidates = append(candidates, candidate{id: id, confidence: math.Max(minColorConfidence, 1-dist)})
	}

	if len(candidates) == 0 {
		return c.fallback()
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(b.confidence, a.confidence)
	})
	if len(candidates) > c.topK {
		candidates = candidates[:c.topK]
	}

	detections := make([]Detection, 0, len(candidates))
	for i, cand := range candidates {
		detections = append(detections, Detection{
			FoodID:      cand.id,
			Name:        c.catalog.DisplayName(cand.id),
			Confidence:  round3(cand.confidence),
			BoundingBox: colorBox(i),
		})
	}
	return detections
}

func (c *ColorClassifier) fallback() []Detection {
	var detections []Detection
	for _, id := range fallbackFoods {
		if !c.catalog.Contains(id) {
			continue
		}
		detections = append(detections, Detection{
			FoodID:      id,
			Name:        c.catalog.DisplayName(id),
			Confidence:  fallbackColorConfidence,
			BoundingBox: colorBox(len(detections)),
		})
	}
	if len(detections) == 0 {
		return []Detection{DefaultDetection(c.catalog)}
	}
	return detections
}

// colorBox returns the synthetic bounding box of the i-th colour candidate
func colorBox(i int) BoundingBox {
	if i == 0 {
		return BoundingBox{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8}
	}
	return BoundingBox{X: 0.2, Y: 0.2, Width: 0.6, Height: 0.6}
}
