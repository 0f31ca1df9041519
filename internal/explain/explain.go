// Package explain builds the human-readable trace of how meal nutrition was derived.
package explain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/nutrition"
)

const (
	header      = "📊 **Nutrition Calculation Methodology:**"
	methodology = "🧠 **Portion Estimation Method**: Based on visual plate coverage analysis, " +
		"bounding box area calculation, and standard serving size references from Indian food nutrition database."
)

// Item is one detected food with its estimated portion
type Item struct {
	FoodID string
	Name   string
	Grams  float64
}

// Explain returns the methodology trace for items, one bullet per item in
// order. Foods missing from the catalog are explained with 0 cal/100g.
func Explain(items []Item, cat *catalog.Catalog) string {
	lines := make([]string, 0, len(items)+4)
	lines = append(lines, header, "")

	for _, item := range items {
		var per100 float64
		if food, ok := cat.Lookup(item.FoodID); ok {
			per100 = food.Per100g.Calories
		}
		lines = append(lines, fmt.Sprintf("• **%s**: Estimated portion %sg (%s cal/100g) = %.0f calories",
			item.Name,
			nutrition.FormatDecimal(item.Grams),
			strconv.FormatFloat(per100, 'f', -1, 64),
			per100*item.Grams/100))
	}

	lines = append(lines, "", methodology)
	return strings.Join(lines, "\n")
}
