package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/nutritive-go/internal/errors"
)

func testFood(id string, cal float64) Food {
	return Food{
		ID:              id,
		Name:            TitleCase(id),
		Category:        CategoryMainCourse,
		Per100g:         Nutrients{Calories: cal},
		StandardServing: Serving{Size: "1 bowl", Grams: 100, Calories: cal},
	}
}

func TestEmbeddedCatalogLoads(t *testing.T) {
	t.Parallel()
	t.Attr("component", "catalog")

	c, err := Load("")
	require.NoError(t, err)
	require.Positive(t, c.Len())

	for _, id := range []string{"idli", "dosa", "masala_dosa", "biryani", "dal", "sambar", "rice",
		"chapati", "vada", "pongal", "paratha", "upma", "curry"} {
		assert.True(t, c.Contains(id), "embedded catalog should contain %s", id)
	}

	dal, ok := c.Lookup("dal")
	require.True(t, ok)
	assert.InDelta(t, 120.0, dal.Per100g.Calories, 0)
	assert.Equal(t, CategoryCurry, dal.Category)
	assert.Equal(t, "idli", c.IDs()[0])
}

func TestNewSkipsInvalidAndDuplicateRecords(t *testing.T) {
	t.Parallel()

	negative := testFood("bad", 10)
	negative.Per100g.Fat = -1
	noServing := testFood("noserving", 10)
	noServing.StandardServing.Grams = 0

	c := New(testFood("rice", 130), testFood("rice", 999), negative, noServing, testFood("", 5), testFood("dal", 120))

	assert.Equal(t, []string{"rice", "dal"}, c.IDs())
	rice, _ := c.Lookup("rice")
	assert.InDelta(t, 130.0, rice.Per100g.Calories, 0)
}

func TestLoadFailuresAreCatalogUnavailable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	malformed := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"foods": [`), 0o600))
	noFoods := filepath.Join(dir, "nofoods.json")
	require.NoError(t, os.WriteFile(noFoods, []byte(`{"version": "1"}`), 0o600))

	for _, path := range []string{filepath.Join(dir, "missing.json"), malformed, noFoods} {
		_, err := Load(path)
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryCatalogUnavailable), path)

		assert.Zero(t, LoadOrEmpty(path).Len())
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	c := New(testFood("idli", 58), testFood("masala_dosa", 165), testFood("dal", 120),
		testFood("rice", 130), testFood("curry", 110))

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"dal", "dal", true},
		{"Masala Dosa", "masala_dosa", true},
		{"chicken_curry", "curry", true},
		{"chicken curry", "curry", true},
		{"dosa", "masala_dosa", true},
		{"fried rice", "rice", true},
		{"pizza", "", false},
		{"", "idli", true},
		{"   ", "idli", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := c.Match(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := Empty().Match("rice")
	assert.False(t, ok)
	_, ok = Empty().Match("")
	assert.False(t, ok)
}

func TestDisplayNameAndTags(t *testing.T) {
	t.Parallel()

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Dal Tadka", c.DisplayName("dal"))
	assert.Equal(t, "Unicorn_Stew", c.DisplayName("unicorn_stew"))

	tags, warnings := c.Tags("vada")
	assert.Contains(t, warnings, "deep_fried")
	assert.NotEmpty(t, tags)

	tags, warnings = c.Tags("unknown")
	assert.Empty(t, tags)
	assert.Empty(t, warnings)
}

func TestNilCatalogIsEmpty(t *testing.T) {
	t.Parallel()

	var c *Catalog
	assert.Zero(t, c.Len())
	assert.False(t, c.Contains("rice"))
	assert.Nil(t, c.IDs())
}
