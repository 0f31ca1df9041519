package analytics

import "github.com/tphakala/nutritive-go/internal/logger"

// GetLogger returns the analytics package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("analytics")
}
