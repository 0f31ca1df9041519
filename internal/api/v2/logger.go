package api

import "github.com/tphakala/nutritive-go/internal/logger"

// GetLogger returns the api package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}
