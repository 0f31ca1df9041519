// Package serve implements the serve command that runs the HTTP API.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	api "github.com/tphakala/nutritive-go/internal/api/v2"
	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/datastore"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/logger"
	"github.com/tphakala/nutritive-go/internal/observability"
	"github.com/tphakala/nutritive-go/internal/privacy"
	"github.com/tphakala/nutritive-go/internal/recognition"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the nutrition analysis API server",
		Long:  "Serve the meal recognition, user, meal log and analytics endpoints over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), settings)
		},
	}

	if err := setupFlags(cmd); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("port", viper.GetString("webserver.port"), "Port the API server listens on")
	cmd.Flags().String("uploaddir", viper.GetString("webserver.uploaddir"), "Directory for kept meal photos, empty discards them")
	cmd.Flags().String("catalog", viper.GetString("catalog.path"), "Path to a custom food catalog JSON file")

	for key, flag := range map[string]string{
		"webserver.port":      "port",
		"webserver.uploaddir": "uploaddir",
		"catalog.path":        "catalog",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// Run starts the API server and blocks until ctx is cancelled, SIGINT or
// SIGTERM is received or the server fails.
func Run(ctx context.Context, settings *conf.Settings) error {
	log := GetLogger()

	if !settings.WebServer.Enabled {
		return errors.Newf("web server is disabled in configuration").
			Component("serve").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if settings.Sentry.Enabled {
		if err := initSentry(settings); err != nil {
			log.Warn("error telemetry disabled", logger.Error(err))
		} else {
			errors.SetPrivacyScrubber(privacy.ScrubMessage)
			errors.SetTelemetryReporter(errors.NewSentryReporter(true))
			defer sentry.Flush(2 * time.Second)
		}
	}

	m, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("error initializing metrics: %w", err)
	}

	pipeline, cleanup := recognition.Setup(ctx, settings, m)
	defer cleanup()

	ds := datastore.New(settings)
	if ds == nil {
		return errors.Newf("no datastore enabled, enable output.sqlite or output.mysql").
			Component("serve").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := ds.Open(); err != nil {
		return err
	}
	defer func() {
		if err := ds.Close(); err != nil {
			log.Error("error closing datastore", logger.Error(err))
		}
	}()
	ds.SetMetrics(m.Datastore)

	e := echo.New()
	e.HidePort = true
	if _, err := api.New(e, ds, pipeline, settings, api.WithMetrics(m)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + settings.WebServer.Port
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		log.Info("API server listening",
			logger.String("address", addr),
			logger.Int("foods", pipeline.Catalog().Len()))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.New(err).
				Component("serve").
				Category(errors.CategoryNetwork).
				Context("address", addr).
				Build()
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// initSentry initializes the Sentry SDK with personal data stripped from events
func initSentry(settings *conf.Settings) error {
	if settings.Sentry.DSN == "" {
		return fmt.Errorf("sentry DSN is empty")
	}

	environment := settings.Sentry.Environment
	if environment == "" {
		environment = "production"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              settings.Sentry.DSN,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      environment,
		ServerName:       "",
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			event.User = sentry.User{}
			event.ServerName = ""
			event.Request = nil
			event.Message = privacy.ScrubMessage(event.Message)
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	return nil
}
