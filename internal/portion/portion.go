// Package portion estimates how many grams of a detected food are on the plate.
package portion

import (
	"fmt"
	"math"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/classifier"
	"github.com/tphakala/nutritive-go/internal/nutrition"
)

const (
	// MinGrams and MaxGrams bound every estimate
	MinGrams = 20.0
	MaxGrams = 500.0

	// DefaultServingGrams is assumed for foods missing from the catalog
	DefaultServingGrams = 100.0

	// baselineCoverage is the box area that corresponds to one standard serving
	baselineCoverage = 0.5
)

var categoryFactors = map[string]float64{
	catalog.CategoryBreakfast:  0.9,
	catalog.CategoryMainCourse: 1.0,
	catalog.CategoryCurry:      0.8,
	catalog.CategoryBread:      1.2,
	catalog.CategorySnack:      0.6,
	catalog.CategorySideDish:   0.5,
}

// CategoryFactor returns the density factor of a food category, 1.0 for
// categories without one.
func CategoryFactor(category string) float64 {
	if f, ok := categoryFactors[category]; ok {
		return f
	}
	return 1.0
}

// Estimate returns the grams of food covered by box and a one-line
// justification. plateDiameter only appears in the justification.
func Estimate(box classifier.BoundingBox, plateDiameter float64, category string, servingGrams float64) (grams float64, explanation string) {
	if servingGrams <= 0 || math.IsNaN(servingGrams) || math.IsInf(servingGrams, 0) {
		servingGrams = DefaultServingGrams
	}

	area := box.Area()
	if math.IsNaN(area) || math.IsInf(area, 0) || area < 0 {
		grams = MinGrams
		area = 0
	} else {
		grams = servingGrams * (area / baselineCoverage) * CategoryFactor(category)
		grams = math.Max(MinGrams, math.Min(grams, MaxGrams))
	}

	explanation = fmt.Sprintf(
		"Portion estimated based on visual coverage (≈%d%% of plate) and standard serving size. Plate diameter: %.0fcm.",
		int(area*100), plateDiameter)

	return nutrition.Round1(grams), explanation
}

// Result is the portion estimate of one detection
type Result struct {
	Grams       float64
	Explanation string
	Category    string
}

// ForDetection estimates the portion of a detection using the food's
// catalog category and standard serving. Foods missing from the catalog use
// main_course and a 100 g serving.
func ForDetection(cat *catalog.Catalog, d classifier.Detection, plateDiameter float64) Result {
	category := catalog.CategoryMainCourse
	serving := DefaultServingGrams
	if food, ok := cat.Lookup(d.FoodID); ok {
		category = food.Category
		serving = food.StandardServing.Grams
	}

	grams, explanation := Estimate(d.BoundingBox, plateDiameter, category, serving)
	return Result{Grams: grams, Explanation: explanation, Category: category}
}
