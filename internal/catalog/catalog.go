// Package catalog holds the read-only food knowledge base: per-100g nutrition,
// standard servings, categories and health tags for every recognisable food.
package catalog

import (
	_ "embed" // For embedding data
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/logger"
)

//go:embed data/indian_food_nutrition.json
var embeddedCatalog []byte

// DefaultFoodID is substituted for identifiers that cannot be resolved
const DefaultFoodID = "rice"

// Food categories used by the portion estimator
const (
	CategoryBreakfast  = "breakfast"
	CategoryMainCourse = "main_course"
	CategoryCurry      = "curry"
	CategoryBread      = "bread"
	CategorySnack      = "snack"
	CategorySideDish   = "side_dish"
	CategoryDessert    = "dessert"
	CategoryBeverage   = "beverage"
)

// Nutrients is a nutrition vector. Catalog records store it per 100 g;
// detections and totals store it per portion.
type Nutrients struct {
	Calories float64 `json:"calories" yaml:"calories"` // kcal
	Protein  float64 `json:"protein" yaml:"protein"`   // g
	Carbs    float64 `json:"carbs" yaml:"carbs"`       // g
	Fat      float64 `json:"fat" yaml:"fat"`           // g
	Fiber    float64 `json:"fiber" yaml:"fiber"`       // g
	Sugar    float64 `json:"sugar" yaml:"sugar"`       // g
	Sodium   float64 `json:"sodium" yaml:"sodium"`     // mg
}

// Serving describes a food's standard serving
type Serving struct {
	Size     string  `json:"size" yaml:"size"`
	Grams    float64 `json:"grams" yaml:"grams"`
	Calories float64 `json:"calories" yaml:"calories"`
}

// Food is one catalog record
type Food struct {
	ID              string    `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Category        string    `json:"category" yaml:"category"`
	Per100g         Nutrients `json:"per_100g" yaml:"per_100g"`
	StandardServing Serving   `json:"standard_serving" yaml:"standard_serving"`
	HealthTags      []string  `json:"health_tags" yaml:"health_tags"`
	Warnings        []string  `json:"warnings" yaml:"warnings"`
}

// validate checks the invariants a record must hold to enter the catalog
func (f *Food) validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("food id is empty")
	}
	n := f.Per100g
	for name, v := range map[string]float64{
		"calories": n.Calories, "protein": n.Protein, "carbs": n.Carbs, "fat": n.Fat,
		"fiber": n.Fiber, "sugar": n.Sugar, "sodium": n.Sodium,
	} {
		if v < 0 {
			return fmt.Errorf("food %q has negative %s", f.ID, name)
		}
	}
	if f.StandardServing.Grams <= 0 {
		return fmt.Errorf("food %q has non-positive serving grams", f.ID)
	}
	if f.StandardServing.Calories < 0 {
		return fmt.Errorf("food %q has negative serving calories", f.ID)
	}
	return nil
}

// Catalog is an ordered, immutable set of foods keyed by id.
// Iteration order is the source file order.
type Catalog struct {
	foods []Food
	index map[string]int
}

type catalogFile struct {
	Version string `json:"version"`
	Foods   []Food `json:"foods"`
}

// New builds a catalog from records. Invalid and duplicate records are skipped
// with a warning; the first occurrence of an id wins.
func New(foods ...Food) *Catalog {
	c := &Catalog{
		foods: make([]Food, 0, len(foods)),
		index: make(map[string]int, len(foods)),
	}
	for i := range foods {
		f := foods[i]
		if err := f.validate(); err != nil {
			GetLogger().Warn("skipping invalid catalog record", logger.Error(err))
			continue
		}
		if _, dup := c.index[f.ID]; dup {
			GetLogger().Warn("skipping duplicate catalog record", logger.String("food_id", f.ID))
			continue
		}
		f.HealthTags = slices.Clone(f.HealthTags)
		f.Warnings = slices.Clone(f.Warnings)
		c.index[f.ID] = len(c.foods)
		c.foods = append(c.foods, f)
	}
	return c
}

// Empty returns a catalog without records
func Empty() *Catalog {
	return New()
}

// Parse decodes a catalog document of the form {"foods": [...]}.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.New(err).
			Component("catalog").
			Category(errors.CategoryCatalogUnavailable).
			Context("operation", "parse_catalog").
			Build()
	}
	if doc.Foods == nil {
		return nil, errors.Newf("catalog document has no foods array").
			Component("catalog").
			Category(errors.CategoryCatalogUnavailable).
			Context("operation", "parse_catalog").
			Build()
	}
	return New(doc.Foods...), nil
}

// Load reads the catalog from customPath, or the embedded catalog when customPath is empty.
func Load(customPath string) (*Catalog, error) {
	data := embeddedCatalog
	if customPath != "" {
		var err error
		data, err = os.ReadFile(customPath) //nolint:gosec // operator supplied catalog path
		if err != nil {
			return nil, errors.New(err).
				Component("catalog").
				Category(errors.CategoryCatalogUnavailable).
				FileContext(customPath, 0).
				Context("operation", "read_catalog").
				Build()
		}
	}
	return Parse(data)
}

// LoadOrEmpty behaves like Load but degrades to an empty catalog on failure.
func LoadOrEmpty(customPath string) *Catalog {
	c, err := Load(customPath)
	if err != nil {
		GetLogger().Error("food catalog unavailable, continuing with an empty catalog",
			logger.String("path", customPath),
			logger.Error(err))
		return Empty()
	}
	GetLogger().Info("food catalog loaded", logger.Int("foods", c.Len()))
	return c
}

// Len returns the number of foods
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.foods)
}

// Lookup returns the food with the given id
func (c *Catalog) Lookup(id string) (Food, bool) {
	if c == nil {
		return Food{}, false
	}
	i, ok := c.index[id]
	if !ok {
		return Food{}, false
	}
	return c.foods[i], true
}

// Contains reports whether id is in the catalog
func (c *Catalog) Contains(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// IDs returns all food ids in catalog order
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.foods))
	for i := range c.foods {
		ids[i] = c.foods[i].ID
	}
	return ids
}

// Foods returns a copy of all records in catalog order
func (c *Catalog) Foods() []Food {
	if c == nil {
		return nil
	}
	return slices.Clone(c.foods)
}

// Match resolves a free-form identifier to a catalog id. The identifier is
// lower-cased with spaces replaced by underscores, then matched exactly, then
// by substring containment in either direction against ids in catalog order.
// A blank identifier is contained in every id and so matches the first one.
func (c *Catalog) Match(raw string) (string, bool) {
	id := NormalizeID(raw)
	if c.Len() == 0 {
		return "", false
	}
	if c.Contains(id) {
		return id, true
	}
	for i := range c.foods {
		candidate := c.foods[i].ID
		if strings.Contains(candidate, id) || strings.Contains(id, candidate) {
			return candidate, true
		}
	}
	return "", false
}

// DisplayName returns the catalog name for id, falling back to the title-cased id
func (c *Catalog) DisplayName(id string) string {
	if f, ok := c.Lookup(id); ok && f.Name != "" {
		return f.Name
	}
	return TitleCase(id)
}

// Tags returns the health tags and warnings of a food; both are empty for unknown ids
func (c *Catalog) Tags(id string) (healthTags, warnings []string) {
	f, ok := c.Lookup(id)
	if !ok {
		return []string{}, []string{}
	}
	return slices.Clone(f.HealthTags), slices.Clone(f.Warnings)
}

// NormalizeID lower-cases an identifier and replaces spaces with underscores
func NormalizeID(raw string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
}

// TitleCase title-cases each underscore-separated word, so "masala_dosa" becomes "Masala_Dosa"
func TitleCase(s string) string {
	caser := cases.Title(language.English) // Casers are stateful, one per call
	parts := strings.Split(s, "_")
	for i, p := range parts {
		parts[i] = caser.String(p)
	}
	return strings.Join(parts, "_")
}
