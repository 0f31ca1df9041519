// Package cmd wires the nutritive command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/nutritive-go/cmd/analyze"
	"github.com/tphakala/nutritive-go/cmd/foods"
	"github.com/tphakala/nutritive-go/cmd/serve"
	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/logger"
)

// RootCommand creates and returns the root command. settings is filled
// from the config file, environment and flags before any subcommand runs.
func RootCommand(settings *conf.Settings, version string) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           conf.AppName,
		Short:         "Meal photo nutrition analysis",
		Long:          "Recognise foods in meal photos and report portions, nutrition and health advice.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		panic(fmt.Sprintf("error binding debug flag: %v", err))
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		analyze.Command(settings),
		foods.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			conf.SetConfigFile(configFile)
		}
		loaded, err := conf.Load()
		if err != nil {
			return err
		}
		*settings = *loaded
		return initialize(settings)
	}

	return rootCmd
}

// initialize installs the global logger configured by settings
func initialize(settings *conf.Settings) error {
	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	cl, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(cl)
	return nil
}
