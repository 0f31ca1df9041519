// Package nutrition scales per-100g catalog values to portions and sums them.
//
// Values are rounded twice: once per item when scaling and once more on the
// totals after summing the already rounded items.
package nutrition

import (
	"math"
	"strconv"

	"github.com/tphakala/nutritive-go/internal/catalog"
)

// Round rounds v to places decimals. The exact binary value is rounded with
// ties to even, so 0.25 becomes 0.2 and 3.15 (stored below the half) 3.1.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// Round1 rounds v to one decimal
func Round1(v float64) float64 {
	return Round(v, 1)
}

// Scale returns the nutrition of grams of food, every field rounded to one decimal
func Scale(food catalog.Food, grams float64) catalog.Nutrients {
	factor := grams / 100.0
	p := food.Per100g
	return catalog.Nutrients{
		Calories: Round1(p.Calories * factor),
		Protein:  Round1(p.Protein * factor),
		Carbs:    Round1(p.Carbs * factor),
		Fat:      Round1(p.Fat * factor),
		Fiber:    Round1(p.Fiber * factor),
		Sugar:    Round1(p.Sugar * factor),
		Sodium:   Round1(p.Sodium * factor),
	}
}

// ScaleID scales the catalog food id; unknown ids contribute zero
func ScaleID(cat *catalog.Catalog, id string, grams float64) catalog.Nutrients {
	food, ok := cat.Lookup(id)
	if !ok {
		return catalog.Nutrients{}
	}
	return Scale(food, grams)
}

// Aggregate sums items component-wise and rounds each total to one decimal
func Aggregate(items []catalog.Nutrients) catalog.Nutrients {
	var total catalog.Nutrients
	for _, n := range items {
		total.Calories += n.Calories
		total.Protein += n.Protein
		total.Carbs += n.Carbs
		total.Fat += n.Fat
		total.Fiber += n.Fiber
		total.Sugar += n.Sugar
		total.Sodium += n.Sodium
	}
	return catalog.Nutrients{
		Calories: Round1(total.Calories),
		Protein:  Round1(total.Protein),
		Carbs:    Round1(total.Carbs),
		Fat:      Round1(total.Fat),
		Fiber:    Round1(total.Fiber),
		Sugar:    Round1(total.Sugar),
		Sodium:   Round1(total.Sodium),
	}
}

// FormatDecimal prints v in its shortest form with at least one decimal,
// so 150 prints as "150.0" and 12.25 as "12.25".
func FormatDecimal(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
