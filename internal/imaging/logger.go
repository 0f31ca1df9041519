package imaging

import (
	"github.com/tphakala/nutritive-go/internal/logger"
)

// GetLogger returns the imaging package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("imaging")
}
