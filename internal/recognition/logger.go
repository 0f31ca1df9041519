package recognition

import (
	"sync"

	"github.com/tphakala/nutritive-go/internal/logger"
)

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the recognition package logger
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("recognition")
	})
	return serviceLogger
}
