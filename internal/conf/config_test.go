package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadFromFile resets viper and loads settings from a temporary config file.
func loadFromFile(t *testing.T, content string) (*Settings, error) {
	t.Helper()

	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	SetConfigFile(path)
	t.Cleanup(func() {
		SetConfigFile("")
		viper.Reset()
	})

	return Load()
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Attr("component", "conf")

	settings, err := loadFromFile(t, "classifier:\n  topk: 3\n")
	require.NoError(t, err)

	assert.Equal(t, 3, settings.Classifier.TopK)
	assert.Equal(t, "gemini-1.5-flash", settings.Classifier.Vision.Model)
	assert.Equal(t, 15*time.Second, settings.Classifier.Vision.Timeout)
	assert.InDelta(t, 25.0, settings.Portion.PlateDiameter, 0)
	assert.Equal(t, "8080", settings.WebServer.Port)
	assert.True(t, settings.Output.SQLite.Enabled)
	assert.Equal(t, "info", settings.Logging.DefaultLevel)
	require.NotNil(t, settings.Logging.Console)
	assert.True(t, settings.Logging.Console.Enabled)
	assert.Same(t, settings, GetSettings())
}

func TestLoadEmbeddedDefaultsValidate(t *testing.T) {
	t.Attr("component", "conf")

	data, err := getDefaultConfig()
	require.NoError(t, err)

	settings, err := loadFromFile(t, string(data))
	require.NoError(t, err)
	assert.Equal(t, AppName, settings.Main.Name)
	assert.False(t, settings.Classifier.Vision.Active())
}

func TestEnvironmentOverridesConfig(t *testing.T) {
	t.Attr("component", "conf")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("NUTRITIVE_VISION_ENABLED", "true")
	t.Setenv("NUTRITIVE_PORT", "9090")

	settings, err := loadFromFile(t, "webserver:\n  port: \"8081\"\n")
	require.NoError(t, err)

	assert.Equal(t, "test-key", settings.Classifier.Vision.APIKey)
	assert.True(t, settings.Classifier.Vision.Active())
	assert.Equal(t, "9090", settings.WebServer.Port)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Attr("component", "conf")

	_, err := loadFromFile(t, "classifier:\n  topk: 0\noutput:\n  mysql:\n    enabled: true\n")
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}

func TestLoadCreatesDefaultConfigWhenMissing(t *testing.T) {
	t.Attr("component", "conf")

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	viper.Reset()
	t.Cleanup(viper.Reset)

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, settings.Classifier.TopK)

	path, err := FindConfigFile()
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	t.Attr("component", "conf")

	settings, err := loadFromFile(t, "portion:\n  platediameter: 27\n")
	require.NoError(t, err)

	settings.Classifier.TopK = 4
	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, SaveYAMLConfig(out, settings))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	reloaded, err := loadFromFile(t, string(data))
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.Classifier.TopK)
	assert.InDelta(t, 27.0, reloaded.Portion.PlateDiameter, 0)
}
