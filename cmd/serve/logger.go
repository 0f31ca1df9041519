package serve

import "github.com/tphakala/nutritive-go/internal/logger"

// GetLogger returns the serve command logger
func GetLogger() logger.Logger {
	return logger.Global().Module("serve")
}
