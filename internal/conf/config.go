// conf/config.go
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/nutritive-go/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings contains all configuration options
type Settings struct {
	Debug bool `yaml:"debug"` // true to enable debug mode

	Main struct {
		Name string `yaml:"name"` // name of the instance, shown in logs and API responses
	} `yaml:"main"`

	Logging logger.LoggingConfig `yaml:"logging"`

	Catalog    CatalogSettings    `yaml:"catalog"`
	Classifier ClassifierSettings `yaml:"classifier"`
	Portion    PortionSettings    `yaml:"portion"`
	WebServer  WebServerSettings  `yaml:"webserver"`
	Output     OutputSettings     `yaml:"output"`
	Sentry     SentrySettings     `yaml:"sentry"`
	Metrics    MetricsSettings    `yaml:"metrics"`
}

// CatalogSettings selects the food catalog source
type CatalogSettings struct {
	Path string `yaml:"path"` // external catalog JSON, empty uses the embedded one
}

// ClassifierSettings contains food classifier settings
type ClassifierSettings struct {
	TopK   int            `yaml:"topk"` // candidates returned by the colour classifier
	Vision VisionSettings `yaml:"vision"`
}

// VisionSettings configures the hosted vision-language model
type VisionSettings struct {
	Enabled   bool          `yaml:"enabled"`
	APIKey    string        `yaml:"apikey"`
	Model     string        `yaml:"model"`
	Timeout   time.Duration `yaml:"timeout"`   // upper bound for one model call
	RateLimit float64       `yaml:"ratelimit"` // requests per minute, 0 disables limiting
	Burst     int           `yaml:"burst"`
}

// Active reports whether the vision model should be used
func (v *VisionSettings) Active() bool {
	return v.Enabled && v.APIKey != ""
}

// PortionSettings contains portion estimation settings
type PortionSettings struct {
	PlateDiameter    float64 `yaml:"platediameter"`    // cm, fallback when no plate is found
	MaxPlateDiameter float64 `yaml:"maxplatediameter"` // cm, cap on detected plates
}

// WebServerSettings contains web server settings
type WebServerSettings struct {
	Enabled     bool   `yaml:"enabled"`
	Port        string `yaml:"port"`
	UploadLimit int64  `yaml:"uploadlimit"` // MB
	UploadDir   string `yaml:"uploaddir"`   // where recognised photos are kept, empty discards them
}

// OutputSettings contains persistence settings
type OutputSettings struct {
	SQLite SQLiteSettings `yaml:"sqlite"`
	MySQL  MySQLSettings  `yaml:"mysql"`
}

// SQLiteSettings contains settings for the SQLite database
type SQLiteSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // file path, ":memory:" for a transient database
}

// MySQLSettings contains settings for the MySQL database
type MySQLSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
}

// SentrySettings contains error telemetry settings
type SentrySettings struct {
	Enabled     bool   `yaml:"enabled"`
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// MetricsSettings contains Prometheus exposition settings
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
	configFileFlag   string
)

// SetConfigFile forces Load to read the given file instead of searching the default paths.
func SetConfigFile(path string) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	configFileFlag = path
}

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		// Invalid environment values are reported but do not block startup
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	if configFileFlag != "" {
		viper.SetConfigFile(configFileFlag)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFileFlag, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config into dir and reads it back
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, ConfigFileName)

	defaultConfig, err := getDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, defaultConfig, 0o600); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, ConfigFileName)
	if err != nil {
		return nil, fmt.Errorf("error reading embedded config: %w", err)
	}
	return data, nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath, replacing the file atomically where possible.
// Comments and ordering of the existing file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := moveFile(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
