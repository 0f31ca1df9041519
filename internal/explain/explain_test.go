package explain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/nutritive-go/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(
		catalog.Food{
			ID: "dal", Name: "Dal Tadka", Category: catalog.CategoryCurry,
			Per100g:         catalog.Nutrients{Calories: 120},
			StandardServing: catalog.Serving{Size: "1 bowl", Grams: 150},
		},
		catalog.Food{
			ID: "chapati", Name: "Chapati", Category: catalog.CategoryBread,
			Per100g:         catalog.Nutrients{Calories: 297.5},
			StandardServing: catalog.Serving{Size: "1 piece", Grams: 40},
		},
	)
}

func TestExplain(t *testing.T) {
	t.Parallel()
	t.Attr("component", "explain")

	got := Explain([]Item{
		{FoodID: "dal", Name: "Dal Tadka", Grams: 150},
		{FoodID: "chapati", Name: "Chapati", Grams: 48},
	}, testCatalog())

	want := strings.Join([]string{
		"📊 **Nutrition Calculation Methodology:**",
		"",
		"• **Dal Tadka**: Estimated portion 150.0g (120 cal/100g) = 180 calories",
		"• **Chapati**: Estimated portion 48.0g (297.5 cal/100g) = 143 calories",
		"",
		methodology,
	}, "\n")
	assert.Equal(t, want, got)
}

func TestExplainUnknownFoodAndEmptyList(t *testing.T) {
	t.Parallel()

	got := Explain([]Item{{FoodID: "pizza", Name: "Pizza", Grams: 20}}, testCatalog())
	assert.Contains(t, got, "• **Pizza**: Estimated portion 20.0g (0 cal/100g) = 0 calories")

	lines := strings.Split(Explain(nil, catalog.Empty()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, header, lines[0])
	assert.Empty(t, lines[1])
	assert.Empty(t, lines[2])
	assert.Equal(t, methodology, lines[3])
}
