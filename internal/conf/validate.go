// conf/validate.go

package conf

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateLoggingSettings,
		validateClassifierSettings,
		validatePortionSettings,
		validateWebServerSettings,
		validateOutputSettings,
		validateSentrySettings,
	}
	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateLoggingSettings(settings *Settings) error {
	switch strings.ToLower(settings.Logging.DefaultLevel) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.default_level %q is not a known level", settings.Logging.DefaultLevel)
	}
}

func validateClassifierSettings(settings *Settings) error {
	var errs []string
	c := &settings.Classifier

	if c.TopK < 1 {
		errs = append(errs, "classifier.topk must be at least 1")
	}

	if c.Vision.Enabled {
		if c.Vision.Model == "" {
			errs = append(errs, "classifier.vision.model must be set when vision is enabled")
		}
		if c.Vision.Timeout <= 0 {
			errs = append(errs, "classifier.vision.timeout must be positive")
		}
		if c.Vision.RateLimit < 0 {
			errs = append(errs, "classifier.vision.ratelimit must not be negative")
		}
		if c.Vision.APIKey == "" {
			GetLogger().Warn("vision classifier enabled without an API key, colour classifier will be used")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("classifier settings errors: %v", errs)
	}
	return nil
}

func validatePortionSettings(settings *Settings) error {
	p := &settings.Portion
	if p.PlateDiameter <= 0 || p.PlateDiameter > 100 {
		return fmt.Errorf("portion.platediameter must be between 0 and 100 cm, got %v", p.PlateDiameter)
	}
	if p.MaxPlateDiameter < p.PlateDiameter {
		return fmt.Errorf("portion.maxplatediameter (%v) must not be below platediameter (%v)", p.MaxPlateDiameter, p.PlateDiameter)
	}
	return nil
}

func validateWebServerSettings(settings *Settings) error {
	ws := &settings.WebServer
	if !ws.Enabled {
		return nil
	}

	port, err := strconv.Atoi(ws.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("webserver.port %q must be between 1 and 65535", ws.Port)
	}
	if ws.UploadLimit <= 0 {
		return fmt.Errorf("webserver.uploadlimit must be positive")
	}
	return nil
}

func validateOutputSettings(settings *Settings) error {
	out := &settings.Output
	if out.SQLite.Enabled && out.MySQL.Enabled {
		return fmt.Errorf("only one of output.sqlite and output.mysql can be enabled")
	}
	if out.SQLite.Enabled && out.SQLite.Path == "" {
		return fmt.Errorf("output.sqlite.path must be set")
	}
	if out.MySQL.Enabled {
		var missing []string
		if out.MySQL.Host == "" {
			missing = append(missing, "host")
		}
		if out.MySQL.Database == "" {
			missing = append(missing, "database")
		}
		if out.MySQL.Username == "" {
			missing = append(missing, "username")
		}
		if len(missing) > 0 {
			return fmt.Errorf("output.mysql is missing %s", strings.Join(missing, ", "))
		}
	}
	return nil
}

func validateSentrySettings(settings *Settings) error {
	if settings.Sentry.Enabled && settings.Sentry.DSN == "" {
		return fmt.Errorf("sentry.dsn must be set when sentry is enabled")
	}
	return nil
}
