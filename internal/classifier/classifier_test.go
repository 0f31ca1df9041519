package classifier

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/imaging"
)

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load("")
	require.NoError(t, err)
	return c
}

func uniformPhoto(c color.RGBA) *imaging.Photo {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			img.SetRGBA(x, y, c)
		}
	}
	return &imaging.Photo{Format: "png", Image: img}
}

// fakeModel returns a canned answer or error
type fakeModel struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompt   string
}

func (m *fakeModel) Name() string { return "fake-vision" }

func (m *fakeModel) Detect(ctx context.Context, prompt string, _ *imaging.Photo) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompt = prompt
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.response, m.err
}

// recordingObserver captures classifier events
type recordingObserver struct {
	mu         sync.Mutex
	calls      int
	failures   int
	fallbacks  []string
	unresolved []string
}

func (o *recordingObserver) ObserveModelCall(_ string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) ObserveFallback(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fallbacks = append(o.fallbacks, reason)
}

func (o *recordingObserver) ObserveUnresolved(rawID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unresolved = append(o.unresolved, rawID)
}

func TestBoundingBoxArea(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.64, BoundingBox{Width: 0.8, Height: 0.8}.Area(), 1e-9)
	assert.InDelta(t, 0.0, BoundingBox{}.Area(), 0)
	assert.InDelta(t, -0.5, BoundingBox{Width: -1, Height: 0.5}.Area(), 1e-9)
}

func TestNewSelectsStrategy(t *testing.T) {
	t.Parallel()
	cat := loadCatalog(t)

	assert.Equal(t, StrategyColor, New(cat, 0, nil).Name())
	assert.Equal(t, StrategyVision, New(cat, 2, &fakeModel{}).Name())
}

func TestColorClassifierRanksNearestProfiles(t *testing.T) {
	t.Parallel()
	t.Attr("component", "classifier")

	cat := loadCatalog(t)
	c := NewColorClassifier(cat, 0)

	// Pixel value close to the steamed rice profile (0.90, 0.90, 0.85)
	detections, err := c.Classify(t.Context(), uniformPhoto(color.RGBA{R: 230, G: 230, B: 217, A: 255}))
	require.NoError(t, err)
	require.Len(t, detections, DefaultTopK)

	assert.Equal(t, "rice", detections[0].FoodID)
	assert.Equal(t, "Steamed Rice", detections[0].Name)
	assert.InDelta(t, 0.997, detections[0].Confidence, 0.002)
	assert.Equal(t, BoundingBox{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8}, detections[0].BoundingBox)

	assert.Equal(t, "idli", detections[1].FoodID)
	assert.InDelta(t, 0.911, detections[1].Confidence, 0.003)
	assert.Equal(t, BoundingBox{X: 0.2, Y: 0.2, Width: 0.6, Height: 0.6}, detections[1].BoundingBox)
}

func TestColorClassifierConfidenceFloorAndStableTies(t *testing.T) {
	t.Parallel()

	cat := loadCatalog(t)
	c := NewColorClassifier(cat, 3)

	// Pure blue is far from every profile, so every candidate sits at the floor
	// and catalog order decides.
	detections := c.ClassifyStats(imaging.ColorStats{MeanB: 1})
	require.Len(t, detections, 3)
	for _, d := range detections {
		assert.InDelta(t, 0.5, d.Confidence, 0)
	}
	assert.Equal(t, []string{"idli", "dosa", "masala_dosa"},
		[]string{detections[0].FoodID, detections[1].FoodID, detections[2].FoodID})
}

func TestColorClassifierWithoutProfiledFoods(t *testing.T) {
	t.Parallel()

	food := func(id string) catalog.Food {
		return catalog.Food{
			ID: id, Name: catalog.TitleCase(id), Category: catalog.CategoryDessert,
			Per100g:         catalog.Nutrients{Calories: 100},
			StandardServing: catalog.Serving{Size: "1 bowl", Grams: 100},
		}
	}
	want := []Detection{{
		FoodID: "rice", Name: "Rice", Confidence: 0.7,
		BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8},
	}}

	tests := []struct {
		name    string
		catalog *catalog.Catalog
	}{
		{name: "no profiled foods", catalog: catalog.New(food("lassi"), food("kheer"))},
		{name: "empty catalog", catalog: catalog.Empty()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NewColorClassifier(tt.catalog, 2).ClassifyStats(imaging.ColorStats{MeanR: 0.5})
			assert.Equal(t, want, got)
		})
	}
}

func TestColorClassifierRejectsMissingImage(t *testing.T) {
	t.Parallel()

	_, err := NewColorClassifier(catalog.Empty(), 2).Classify(t.Context(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryImageUnreadable))
}

func TestVisionClassifierParsesResponse(t *testing.T) {
	t.Parallel()
	t.Attr("component", "classifier")

	cat := loadCatalog(t)
	observer := &recordingObserver{}
	model := &fakeModel{response: "Sure! Here is what I found:\n" +
		`[{"food_id": "Chicken Curry", "confidence": 1.4, "description": "red gravy"},` +
		`{"food_id": "dal"}, {"food_id": "pizza", "confidence": 0.41234}]` + "\nEnjoy."}

	v := NewVisionClassifier(cat, model, NewColorClassifier(cat, 2), WithObserver(observer))
	detections, strategy, err := v.ClassifyWithStrategy(t.Context(), uniformPhoto(color.RGBA{A: 255}))
	require.NoError(t, err)
	assert.Equal(t, StrategyVision, strategy)
	require.Len(t, detections, 3)

	assert.Equal(t, Detection{
		FoodID: "curry", Name: "Vegetable Curry", Confidence: 1,
		BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.7, Height: 0.7},
		Description: "red gravy",
	}, detections[0])

	assert.Equal(t, "dal", detections[1].FoodID)
	assert.InDelta(t, 0.8, detections[1].Confidence, 0)
	assert.InDelta(t, 0.15, detections[1].BoundingBox.X, 1e-9)

	assert.Equal(t, "rice", detections[2].FoodID)
	assert.Equal(t, "Steamed Rice", detections[2].Name)
	assert.InDelta(t, 0.412, detections[2].Confidence, 0)
	assert.InDelta(t, 0.2, detections[2].BoundingBox.Y, 1e-9)

	assert.Equal(t, []string{"pizza"}, observer.unresolved)
	assert.Equal(t, 1, observer.calls)
	assert.Empty(t, observer.fallbacks)
	assert.Contains(t, model.prompt, "masala_dosa")
}

func TestVisionClassifierResponseEdgeCases(t *testing.T) {
	t.Parallel()

	cat := loadCatalog(t)
	tests := []struct {
		name     string
		response string
		want     Detection
	}{
		{
			name:     "no array",
			response: "I cannot see any food here.",
			want: Detection{
				FoodID: "rice", Name: "Steamed Rice", Confidence: 0.7,
				BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.7, Height: 0.7},
				Description: "Unable to parse AI response",
			},
		},
		{
			name:     "empty array",
			response: "[]",
			want: Detection{
				FoodID: "rice", Name: "Steamed Rice", Confidence: 0.7,
				BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8},
			},
		},
		{
			name:     "broken bracket before array",
			response: `see [note] then [{"food_id": "idli", "confidence": 0.9}]`,
			want: Detection{
				FoodID: "idli", Name: "Idli", Confidence: 0.9,
				BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.7, Height: 0.7},
			},
		},
		{
			name:     "numeric string confidence",
			response: `[{"food_id":"dal","confidence":"0.9"}]`,
			want: Detection{
				FoodID: "dal", Name: "Dal Tadka", Confidence: 0.9,
				BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.7, Height: 0.7},
			},
		},
		{
			name:     "padded string confidence rounded",
			response: `[{"food_id":"dal","confidence":" 0.8125 "}]`,
			want: Detection{
				FoodID: "dal", Name: "Dal Tadka", Confidence: 0.812,
				BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.7, Height: 0.7},
			},
		},
		{
			name:     "missing food id means rice",
			response: `[{"confidence": 0.6}]`,
			want: Detection{
				FoodID: "rice", Name: "Steamed Rice", Confidence: 0.6,
				BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.7, Height: 0.7},
			},
		},
		{
			name:     "blank food id matches first catalog food",
			response: `[{"food_id": "", "confidence": 0.6}]`,
			want: Detection{
				FoodID: "idli", Name: "Idli", Confidence: 0.6,
				BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.7, Height: 0.7},
			},
		},
		{
			name:     "non-string description kept as text",
			response: `[{"food_id": "idli", "confidence": true, "description": 3}]`,
			want: Detection{
				FoodID: "idli", Name: "Idli", Confidence: 1,
				BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.7, Height: 0.7},
				Description: "3",
			},
		},
		{
			name:     "negative confidence",
			response: `[{"food_id": "Masala Dosa", "confidence": -3}]`,
			want: Detection{
				FoodID: "masala_dosa", Name: "Masala Dosa", Confidence: 0,
				BoundingBox: BoundingBox{X: 0.1, Y: 0.1, Width: 0.7, Height: 0.7},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := NewVisionClassifier(cat, &fakeModel{response: tt.response}, NewColorClassifier(cat, 2))
			detections, err := v.Classify(t.Context(), uniformPhoto(color.RGBA{A: 255}))
			require.NoError(t, err)
			assert.Equal(t, []Detection{tt.want}, detections)
		})
	}
}

func TestVisionClassifierFallsBackOnModelError(t *testing.T) {
	t.Parallel()
	t.Attr("component", "classifier")

	cat := loadCatalog(t)
	observer := &recordingObserver{}
	model := &fakeModel{err: errors.NewStd("quota exceeded")}
	v := NewVisionClassifier(cat, model, NewColorClassifier(cat, 2), WithObserver(observer))

	detections, strategy, err := Classify(t.Context(), v, uniformPhoto(color.RGBA{R: 230, G: 230, B: 217, A: 255}))
	require.NoError(t, err)
	assert.Equal(t, StrategyColor, strategy)
	require.NotEmpty(t, detections)
	assert.Equal(t, "rice", detections[0].FoodID)
	assert.Equal(t, []string{FallbackModelError}, observer.fallbacks)
	assert.Equal(t, 1, observer.failures)
}

func TestVisionClassifierMalformedResponseFallsBack(t *testing.T) {
	t.Parallel()
	t.Attr("component", "classifier")

	cat := loadCatalog(t)
	tests := []struct {
		name     string
		response string
	}{
		{name: "unquoted food id", response: `[{"food_id": dal, "confidence": 0.9}]`},
		{name: "numeric food id", response: `[{"food_id": 7}]`},
		{name: "null food id", response: `[{"food_id": null}]`},
		{name: "null confidence", response: `[{"food_id": "dal", "confidence": null}]`},
		{name: "word confidence", response: `[{"food_id": "dal", "confidence": "high"}]`},
		{name: "nan confidence", response: `[{"food_id": "dal", "confidence": "NaN"}]`},
		{name: "elements not objects", response: `[1, "two"]`},
		{name: "null element", response: `[null]`},
		{name: "one bad element spoils the array", response: `[{"food_id": "dal"}, "extra"]`},
		{name: "unterminated array", response: `Here you go: [{"food_id": "dal"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			observer := &recordingObserver{}
			v := NewVisionClassifier(cat, &fakeModel{response: tt.response}, NewColorClassifier(cat, 2),
				WithObserver(observer))

			detections, strategy, err := v.ClassifyWithStrategy(t.Context(),
				uniformPhoto(color.RGBA{R: 230, G: 230, B: 217, A: 255}))
			require.NoError(t, err)
			assert.Equal(t, StrategyColor, strategy)
			require.NotEmpty(t, detections)
			assert.Equal(t, "rice", detections[0].FoodID)
			assert.Equal(t, []string{FallbackMalformed}, observer.fallbacks)
			assert.Zero(t, observer.failures)
		})
	}
}

func TestExtractItemsErrorCategory(t *testing.T) {
	t.Parallel()

	_, found, err := extractItems(`[{"food_id": 7}]`)
	assert.True(t, found)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryExternalModel))

	items, found, err := extractItems("no brackets here")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, items)
}

func TestVisionClassifierRateLimitFallsBack(t *testing.T) {
	t.Parallel()

	cat := loadCatalog(t)
	observer := &recordingObserver{}
	model := &fakeModel{response: `[{"food_id": "idli"}]`}
	v := NewVisionClassifier(cat, model, NewColorClassifier(cat, 2),
		WithRateLimit(1, 1), WithObserver(observer))
	photo := uniformPhoto(color.RGBA{R: 230, G: 230, B: 217, A: 255})

	_, strategy, err := v.ClassifyWithStrategy(t.Context(), photo)
	require.NoError(t, err)
	assert.Equal(t, StrategyVision, strategy)

	_, strategy, err = v.ClassifyWithStrategy(t.Context(), photo)
	require.NoError(t, err)
	assert.Equal(t, StrategyColor, strategy)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, []string{FallbackRateLimited}, observer.fallbacks)
}

func TestVisionClassifierReturnsParentCancellation(t *testing.T) {
	t.Parallel()

	cat := loadCatalog(t)
	v := NewVisionClassifier(cat, &fakeModel{response: "[]"}, NewColorClassifier(cat, 2))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := v.Classify(ctx, uniformPhoto(color.RGBA{A: 255}))
	require.ErrorIs(t, err, context.Canceled)
}

func TestVisionClassifierTimeoutFallsBack(t *testing.T) {
	t.Parallel()

	cat := loadCatalog(t)
	slow := &blockingModel{}
	v := NewVisionClassifier(cat, slow, NewColorClassifier(cat, 2), WithTimeout(20*time.Millisecond))

	_, strategy, err := v.ClassifyWithStrategy(t.Context(), uniformPhoto(color.RGBA{A: 255}))
	require.NoError(t, err)
	assert.Equal(t, StrategyColor, strategy)
}

// blockingModel waits until its context ends
type blockingModel struct{}

func (blockingModel) Name() string { return "blocking" }

func (blockingModel) Detect(ctx context.Context, _ string, _ *imaging.Photo) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestBuildPromptListsFoods(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt([]string{"idli", "dosa"})
	assert.Contains(t, prompt, "idli, dosa")
	assert.Contains(t, prompt, "JSON array")
}
