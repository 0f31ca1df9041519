package recognition

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/nutritive-go/internal/classifier"
	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/observability"
)

func TestSetupWithoutVisionModel(t *testing.T) {
	t.Parallel()
	t.Attr("component", "recognition")

	settings := &conf.Settings{}
	settings.Classifier.Vision.Enabled = true // no API key, so inactive

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	p, cleanup := Setup(t.Context(), settings, m)
	require.NotNil(t, cleanup)
	defer cleanup()

	assert.Positive(t, p.Catalog().Len())
	assert.Equal(t, classifier.StrategyColor, p.classifier.Name())
	assert.Same(t, m.Recognition, p.metrics)
}

func TestSetupMissingCatalogDegrades(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Catalog.Path = filepath.Join(t.TempDir(), "missing.json")

	p, cleanup := Setup(t.Context(), settings, nil)
	defer cleanup()

	assert.Zero(t, p.Catalog().Len())
	assert.Nil(t, p.metrics)
}
