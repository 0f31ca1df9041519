package portion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/classifier"
)

func TestEstimate(t *testing.T) {
	t.Parallel()
	t.Attr("component", "portion")

	half := classifier.BoundingBox{Width: 1, Height: 0.5}

	tests := []struct {
		name     string
		box      classifier.BoundingBox
		category string
		serving  float64
		want     float64
	}{
		{name: "baseline coverage main course", box: half, category: catalog.CategoryMainCourse, serving: 100, want: 100},
		{name: "unknown category uses factor one", box: half, category: "mystery", serving: 150, want: 150},
		{name: "curry factor", box: half, category: catalog.CategoryCurry, serving: 150, want: 120},
		{name: "bread factor", box: half, category: catalog.CategoryBread, serving: 40, want: 48},
		{name: "clamped to minimum", box: classifier.BoundingBox{Width: 0.1, Height: 0.1}, category: catalog.CategorySideDish, serving: 50, want: 20},
		{name: "clamped to maximum", box: classifier.BoundingBox{Width: 1, Height: 1}, category: catalog.CategoryMainCourse, serving: 300, want: 500},
		{name: "rounded to one decimal", box: classifier.BoundingBox{Width: 0.7, Height: 0.7}, category: catalog.CategoryBreakfast, serving: 123, want: 108.5},
		{name: "negative area", box: classifier.BoundingBox{Width: -0.5, Height: 0.5}, category: catalog.CategoryMainCourse, serving: 100, want: 20},
		{name: "non-finite area", box: classifier.BoundingBox{Width: math.Inf(1), Height: 0.5}, category: catalog.CategoryMainCourse, serving: 100, want: 20},
		{name: "invalid serving uses default", box: half, category: catalog.CategoryMainCourse, serving: 0, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			grams, _ := Estimate(tt.box, 25, tt.category, tt.serving)
			assert.InDelta(t, tt.want, grams, 1e-9)
		})
	}
}

func TestEstimateExplanation(t *testing.T) {
	t.Parallel()

	_, explanation := Estimate(classifier.BoundingBox{Width: 0.8, Height: 0.8}, 25, catalog.CategoryMainCourse, 100)
	assert.Equal(t,
		"Portion estimated based on visual coverage (≈64% of plate) and standard serving size. Plate diameter: 25cm.",
		explanation)

	_, explanation = Estimate(classifier.BoundingBox{Width: math.NaN(), Height: 1}, 27.6, "", 100)
	assert.Contains(t, explanation, "(≈0% of plate)")
	assert.Contains(t, explanation, "Plate diameter: 28cm.")
}

func TestForDetection(t *testing.T) {
	t.Parallel()

	cat := catalog.New(catalog.Food{
		ID: "dal", Name: "Dal", Category: catalog.CategoryCurry,
		Per100g:         catalog.Nutrients{Calories: 120},
		StandardServing: catalog.Serving{Size: "1 bowl", Grams: 150},
	})
	box := classifier.BoundingBox{Width: 1, Height: 0.5}

	got := ForDetection(cat, classifier.Detection{FoodID: "dal", BoundingBox: box}, 25)
	assert.InDelta(t, 120.0, got.Grams, 1e-9)
	assert.Equal(t, catalog.CategoryCurry, got.Category)

	missing := ForDetection(cat, classifier.Detection{FoodID: "rice", BoundingBox: box}, 25)
	assert.InDelta(t, 100.0, missing.Grams, 1e-9)
	assert.Equal(t, catalog.CategoryMainCourse, missing.Category)
}
