package main

import (
	"fmt"
	"os"

	"github.com/tphakala/nutritive-go/cmd"
	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	settings := &conf.Settings{}

	rootCmd := cmd.RootCommand(settings, version)
	err := rootCmd.Execute()

	_ = logger.Global().Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
