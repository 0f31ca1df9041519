// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets default values for every configuration key.
func setDefaultConfig() {
	viper.SetDefault("debug", false)
	viper.SetDefault("main.name", AppName)

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/nutritive.log")
	viper.SetDefault("logging.file_output.level", "info")

	viper.SetDefault("catalog.path", "")

	viper.SetDefault("classifier.topk", 2)
	viper.SetDefault("classifier.vision.enabled", false)
	viper.SetDefault("classifier.vision.apikey", "")
	viper.SetDefault("classifier.vision.model", "gemini-1.5-flash")
	viper.SetDefault("classifier.vision.timeout", 15*time.Second)
	viper.SetDefault("classifier.vision.ratelimit", 30.0)
	viper.SetDefault("classifier.vision.burst", 5)

	viper.SetDefault("portion.platediameter", 25.0)
	viper.SetDefault("portion.maxplatediameter", 30.0)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.uploadlimit", 10)
	viper.SetDefault("webserver.uploaddir", "uploads")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "nutritive.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.environment", "production")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
}
