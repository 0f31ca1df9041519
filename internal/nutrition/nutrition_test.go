package nutrition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/nutritive-go/internal/catalog"
)

var dal = catalog.Food{
	ID:       "dal",
	Name:     "Dal Tadka",
	Category: catalog.CategoryCurry,
	Per100g: catalog.Nutrients{
		Calories: 120, Protein: 7.2, Carbs: 16.5, Fat: 3.1,
		Fiber: 4.3, Sugar: 1.2, Sodium: 285,
	},
	StandardServing: catalog.Serving{Size: "1 bowl", Grams: 150, Calories: 180},
}

func TestScaleIdentityAtHundredGrams(t *testing.T) {
	t.Parallel()
	t.Attr("component", "nutrition")

	assert.Equal(t, dal.Per100g, Scale(dal, 100))
}

func TestScaleAndAggregateDal(t *testing.T) {
	t.Parallel()

	item := Scale(dal, 150)
	assert.InDelta(t, 180.0, item.Calories, 1e-9)
	assert.InDelta(t, 10.8, item.Protein, 1e-9)
	assert.InDelta(t, 24.8, item.Carbs, 1e-9) // exact tie 24.75 goes to the even digit
	assert.InDelta(t, 427.5, item.Sodium, 1e-9)

	total := Aggregate([]catalog.Nutrients{item})
	assert.InDelta(t, 180.0, total.Calories, 1e-9)
}

func TestAggregateEmptyIsZero(t *testing.T) {
	t.Parallel()

	assert.Equal(t, catalog.Nutrients{}, Aggregate(nil))
}

func TestAggregateRoundsSumOfRoundedItems(t *testing.T) {
	t.Parallel()

	items := []catalog.Nutrients{
		{Calories: 0.1, Fat: 10.25},
		{Calories: 0.2, Fat: 0.05},
	}
	total := Aggregate(items)
	assert.InDelta(t, 0.3, total.Calories, 1e-9)
	assert.InDelta(t, 10.3, total.Fat, 1e-9)
}

func TestAggregateRoundsScaledItemsTwice(t *testing.T) {
	t.Parallel()

	ghee := catalog.Food{ID: "ghee_drop", Per100g: catalog.Nutrients{Fat: 5}}

	// each item is 0.25 g of fat before rounding
	item := Scale(ghee, 5)
	assert.InDelta(t, 0.2, item.Fat, 1e-9)

	total := Aggregate([]catalog.Nutrients{item, item})
	assert.InDelta(t, 0.4, total.Fat, 1e-9)
	assert.InDelta(t, 0.5, Round1(0.25+0.25), 1e-9, "rounding only the raw sum gives a different total")
}

func TestScaleIDUnknownContributesZero(t *testing.T) {
	t.Parallel()

	cat := catalog.New(dal)
	assert.Equal(t, catalog.Nutrients{}, ScaleID(cat, "pizza", 250))
	assert.InDelta(t, 60.0, ScaleID(cat, "dal", 50).Calories, 1e-9)
}

func TestRound1(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "exact tie to even down", in: 0.25, want: 0.2},
		{name: "exact tie to even up", in: 0.75, want: 0.8},
		{name: "negative tie", in: -0.25, want: -0.2},
		{name: "carry", in: 11.96, want: 12.0},
		{name: "binary value below the half", in: 4.5 * 0.7, want: 3.1},
		{name: "zero", in: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, Round1(tt.in), 1e-9)
		})
	}

	assert.InDelta(t, 0.812, Round(0.8125, 3), 1e-12)
	assert.InDelta(t, 22.09, Round(22.0931, 2), 1e-12)
	assert.True(t, math.IsNaN(Round(math.NaN(), 1)))
}

func TestScaleSmallPortions(t *testing.T) {
	t.Parallel()

	food := catalog.Food{ID: "snack", Per100g: catalog.Nutrients{Protein: 4.5, Fat: 5}}
	assert.InDelta(t, 0.2, Scale(food, 5).Fat, 1e-9)
	assert.InDelta(t, 3.1, Scale(food, 70).Protein, 1e-9)
}

func TestFormatDecimal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "150.0", FormatDecimal(150))
	assert.Equal(t, "12.25", FormatDecimal(12.25))
	assert.Equal(t, "0.0", FormatDecimal(0))
	assert.Equal(t, "108.5", FormatDecimal(108.5))
}
