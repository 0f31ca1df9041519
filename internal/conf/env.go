// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "NUTRITIVE_DEBUG", validateEnvBool},
		{"catalog.path", "NUTRITIVE_CATALOG_PATH", validateEnvPath},

		// Classifier
		{"classifier.topk", "NUTRITIVE_TOPK", validateEnvTopK},
		{"classifier.vision.enabled", "NUTRITIVE_VISION_ENABLED", validateEnvBool},
		{"classifier.vision.apikey", "GEMINI_API_KEY", nil},
		{"classifier.vision.model", "NUTRITIVE_VISION_MODEL", nil},
		{"classifier.vision.timeout", "NUTRITIVE_VISION_TIMEOUT", validateEnvDuration},

		// Web server and storage
		{"webserver.port", "NUTRITIVE_PORT", validateEnvPort},
		{"output.sqlite.path", "NUTRITIVE_SQLITE_PATH", nil},
		{"output.mysql.password", "NUTRITIVE_MYSQL_PASSWORD", nil},

		{"sentry.dsn", "NUTRITIVE_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvTopK(value string) error {
	k, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if k < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("must be a duration such as 15s")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("must be a port number between 1 and 65535")
	}
	return nil
}

// validateEnvPath only warns about missing files; the catalog degrades to empty at load time
func validateEnvPath(value string) error {
	cleanedPath := filepath.Clean(value)
	if strings.Contains(cleanedPath, "..") {
		return fmt.Errorf("path must not contain '..'")
	}
	if _, err := os.Stat(cleanedPath); os.IsNotExist(err) {
		return fmt.Errorf("warning: file does not exist: %s", cleanedPath)
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return bindEnvVars()
}
