package recognition

import (
	"context"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/classifier"
	"github.com/tphakala/nutritive-go/internal/classifier/gemini"
	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/imaging"
	"github.com/tphakala/nutritive-go/internal/logger"
	"github.com/tphakala/nutritive-go/internal/observability"
)

// Setup builds a pipeline from settings. The returned cleanup releases the
// vision model client and is never nil. A vision model that cannot be
// created is logged and replaced by the colour strategy.
func Setup(ctx context.Context, settings *conf.Settings, m *observability.Metrics) (*Pipeline, func()) {
	cleanup := func() {}

	cat := catalog.LoadOrEmpty(settings.Catalog.Path)

	var model classifier.VisionModel
	var opts []classifier.Option
	if settings.Classifier.Vision.Active() {
		vision := &settings.Classifier.Vision
		gm, err := gemini.New(ctx, vision.APIKey, vision.Model)
		if err != nil {
			GetLogger().Warn("vision model unavailable, using colour classifier",
				logger.String("model", vision.Model),
				logger.Error(err))
		} else {
			model = gm
			cleanup = func() {
				if err := gm.Close(); err != nil {
					GetLogger().Debug("closing vision model client", logger.Error(err))
				}
			}
			opts = append(opts,
				classifier.WithTimeout(vision.Timeout),
				classifier.WithRateLimit(vision.RateLimit, vision.Burst))
			if m != nil {
				opts = append(opts, classifier.WithObserver(m.Classifier))
			}
		}
	}

	pipelineOpts := []Option{
		WithPlateDetector(imaging.NewPlateDetector(settings.Portion.PlateDiameter, settings.Portion.MaxPlateDiameter)),
	}
	if m != nil {
		pipelineOpts = append(pipelineOpts, WithMetrics(m.Recognition))
	}

	c := classifier.New(cat, settings.Classifier.TopK, model, opts...)
	return NewPipeline(cat, c, pipelineOpts...), cleanup
}
