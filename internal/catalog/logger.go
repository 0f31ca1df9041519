package catalog

import (
	"sync"

	"github.com/tphakala/nutritive-go/internal/logger"
)

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the catalog package logger scoped to the catalog module.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("catalog")
	})
	return serviceLogger
}
