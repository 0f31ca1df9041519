package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/imaging"
	"github.com/tphakala/nutritive-go/internal/logger"
)

// DefaultVisionTimeout bounds a single model call
const DefaultVisionTimeout = 15 * time.Second

const (
	missingConfidence = 0.8
	unparsedMessage   = "Unable to parse AI response"
)

// Fallback reasons passed to Observer.ObserveFallback
const (
	FallbackRateLimited = "rate_limited"
	FallbackModelError  = "model_error"
	FallbackMalformed   = "malformed_response"
)

// VisionModel sends a prompt and a photo to a hosted vision-language model
// and returns the raw text answer.
type VisionModel interface {
	Detect(ctx context.Context, prompt string, photo *imaging.Photo) (string, error)
	Name() string
}

// Option configures a VisionClassifier
type Option func(*VisionClassifier)

// WithTimeout sets the per-call model timeout
func WithTimeout(d time.Duration) Option {
	return func(v *VisionClassifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithRateLimit limits model calls to perMinute with the given burst.
// Calls over the limit go straight to the fallback strategy.
func WithRateLimit(perMinute float64, burst int) Option {
	return func(v *VisionClassifier) {
		if perMinute <= 0 {
			v.limiter = nil
			return
		}
		v.limiter = rate.NewLimiter(rate.Limit(perMinute/60), max(burst, 1))
	}
}

// WithObserver installs an event observer
func WithObserver(o Observer) Option {
	return func(v *VisionClassifier) {
		if o != nil {
			v.observer = o
		}
	}
}

// VisionClassifier detects foods with a VisionModel and falls back to
// another Classifier whenever the model cannot be used.
type VisionClassifier struct {
	catalog  *catalog.Catalog
	model    VisionModel
	fallback Classifier
	prompt   string
	timeout  time.Duration
	limiter  *rate.Limiter
	observer Observer
}

// NewVisionClassifier creates a vision classifier. The prompt is built once
// from the catalog ids.
func NewVisionClassifier(cat *catalog.Catalog, model VisionModel, fallback Classifier, opts ...Option) *VisionClassifier {
	v := &VisionClassifier{
		catalog:  cat,
		model:    model,
		fallback: fallback,
		prompt:   BuildPrompt(cat.IDs()),
		timeout:  DefaultVisionTimeout,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Name implements Classifier
func (v *VisionClassifier) Name() string { return StrategyVision }

// Classify implements Classifier
func (v *VisionClassifier) Classify(ctx context.Context, photo *imaging.Photo) ([]Detection, error) {
	detections, _, err := v.ClassifyWithStrategy(ctx, photo)
	return detections, err
}

// ClassifyWithStrategy implements StrategyReporter. Model failures are
// logged and the fallback strategy answers instead; only cancellation of
// ctx itself is returned.
func (v *VisionClassifier) ClassifyWithStrategy(ctx context.Context, photo *imaging.Photo) ([]Detection, string, error) {
	log := GetLogger().WithContext(ctx)

	if v.limiter != nil && !v.limiter.Allow() {
		log.Warn("vision model rate limit reached, using fallback classifier",
			logger.String("model", v.model.Name()))
		v.observer.ObserveFallback(FallbackRateLimited)
		return v.classifyFallback(ctx, photo)
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	text, err := v.model.Detect(callCtx, v.prompt, photo)
	elapsed := time.Since(start)
	v.observer.ObserveModelCall(v.model.Name(), elapsed, err)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		enhancedErr := errors.New(err).
			Component("classifier").
			Category(errors.CategoryExternalModel).
			Context("model", v.model.Name()).
			Timing("vision_detect", elapsed).
			Build()
		log.Warn("vision model call failed, using fallback classifier",
			logger.String("model", v.model.Name()),
			logger.Duration("elapsed", elapsed),
			logger.Error(enhancedErr))
		v.observer.ObserveFallback(FallbackModelError)
		return v.classifyFallback(ctx, photo)
	}

	detections, err := v.parseResponse(ctx, text)
	if err != nil {
		log.Warn("malformed vision model response, using fallback classifier",
			logger.String("model", v.model.Name()),
			logger.Int("response_length", len(text)),
			logger.Error(err))
		v.observer.ObserveFallback(FallbackMalformed)
		return v.classifyFallback(ctx, photo)
	}
	log.Debug("vision model detections",
		logger.String("model", v.model.Name()),
		logger.Int("count", len(detections)),
		logger.Duration("elapsed", elapsed))
	return detections, StrategyVision, nil
}

func (v *VisionClassifier) classifyFallback(ctx context.Context, photo *imaging.Photo) ([]Detection, string, error) {
	detections, err := v.fallback.Classify(ctx, photo)
	if err != nil {
		return nil, "", err
	}
	return detections, v.fallback.Name(), nil
}

// visionItem is one element of the model's JSON array
type visionItem struct {
	FoodID      string
	Confidence  float64
	Description string
}

// parseResponse converts the model answer into detections. An answer with no
// array at all yields a single placeholder detection; an array that cannot
// be read is an error.
func (v *VisionClassifier) parseResponse(ctx context.Context, text string) ([]Detection, error) {
	items, found, err := extractItems(text)
	if err != nil {
		return nil, err
	}
	if !found {
		GetLogger().WithContext(ctx).Warn("no JSON array in vision model response",
			logger.Int("response_length", len(text)))
		return []Detection{{
			FoodID:      catalog.DefaultFoodID,
			Name:        v.catalog.DisplayName(catalog.DefaultFoodID),
			Confidence:  defaultConfidence,
			BoundingBox: visionBox(0),
			Description: unparsedMessage,
		}}, nil
	}

	detections := make([]Detection, 0, len(items))
	for _, item := range items {
		detections = append(detections, v.resolve(ctx, item, len(detections)))
	}
	if len(detections) == 0 {
		return []Detection{DefaultDetection(v.catalog)}, nil
	}
	return detections, nil
}

// resolve maps a model item onto the catalog
func (v *VisionClassifier) resolve(ctx context.Context, item visionItem, index int) Detection {
	id, ok := v.catalog.Match(item.FoodID)
	if !ok {
		GetLogger().WithContext(ctx).Debug("unresolved food id, using default",
			logger.String("food_id", item.FoodID),
			logger.String("default", catalog.DefaultFoodID))
		v.observer.ObserveUnresolved(item.FoodID)
		id = catalog.DefaultFoodID
	}

	name := catalog.TitleCase(strings.TrimSpace(item.FoodID))
	if food, found := v.catalog.Lookup(id); found && food.Name != "" {
		name = food.Name
	}

	return Detection{
		FoodID:      id,
		Name:        name,
		Confidence:  round3(clamp01(item.Confidence)),
		BoundingBox: visionBox(index),
		Description: item.Description,
	}
}

// extractItems finds the first well-formed JSON array in text. found is
// false when text holds no '[' at all. Every element must be an object
// whose fields have usable types.
func extractItems(text string) (items []visionItem, found bool, err error) {
	i := strings.IndexByte(text, '[')
	if i < 0 {
		return nil, false, nil
	}
	for {
		var raw []json.RawMessage
		if decodeErr := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); decodeErr == nil {
			items = make([]visionItem, 0, len(raw))
			for n, elem := range raw {
				item, itemErr := decodeItem(elem)
				if itemErr != nil {
					return nil, true, errors.New(itemErr).
						Component("classifier").
						Category(errors.CategoryExternalModel).
						Context("element", n).
						Build()
				}
				items = append(items, item)
			}
			return items, true, nil
		}
		next := strings.IndexByte(text[i+1:], '[')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, true, errors.Newf("no decodable JSON array in vision model response").
		Component("classifier").
		Category(errors.CategoryExternalModel).
		Build()
}

// decodeItem reads one array element. A missing food_id means rice and a
// missing confidence means missingConfidence; confidence may be a number or
// a numeric string.
func decodeItem(raw json.RawMessage) (visionItem, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return visionItem{}, errors.Newf("array element is not an object: %s", truncate(raw)).Build()
	}

	item := visionItem{FoodID: catalog.DefaultFoodID, Confidence: missingConfidence}

	if value, ok := fields["food_id"]; ok {
		if isNull(value) {
			return visionItem{}, errors.Newf("food_id is null").Build()
		}
		if err := json.Unmarshal(value, &item.FoodID); err != nil {
			return visionItem{}, errors.Newf("food_id is not a string: %s", truncate(value)).Build()
		}
	}

	if value, ok := fields["confidence"]; ok {
		confidence, err := parseConfidence(value)
		if err != nil {
			return visionItem{}, err
		}
		item.Confidence = confidence
	}

	if value, ok := fields["description"]; ok && !isNull(value) {
		if err := json.Unmarshal(value, &item.Description); err != nil {
			item.Description = string(bytes.TrimSpace(value))
		}
	}

	return item, nil
}

// parseConfidence accepts a JSON number, a numeric string or a boolean
func parseConfidence(raw json.RawMessage) (float64, error) {
	if isNull(raw) {
		return 0, errors.Newf("confidence is null").Build()
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		parsed, parseErr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if parseErr != nil || math.IsNaN(parsed) {
			return 0, errors.Newf("confidence %q is not a number", s).Build()
		}
		return parsed, nil
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return 1, nil
		}
		return 0, nil
	}

	return 0, errors.Newf("confidence is not a number: %s", truncate(raw)).Build()
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// truncate shortens raw JSON for error messages
func truncate(raw json.RawMessage) string {
	const limit = 64
	s := string(bytes.TrimSpace(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// visionBox synthesises the bounding box of the i-th model detection
func visionBox(i int) BoundingBox {
	offset := 0.1 + 0.05*float64(i)
	return BoundingBox{X: offset, Y: offset, Width: 0.7, Height: 0.7}
}
