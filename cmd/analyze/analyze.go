// Package analyze implements the analyze command that reports on one meal photo.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/nutritive-go/internal/advisor"
	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/errors"
	"github.com/tphakala/nutritive-go/internal/imaging"
	"github.com/tphakala/nutritive-go/internal/profile"
	"github.com/tphakala/nutritive-go/internal/recognition"
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const fetchTimeout = 30 * time.Second

// Options holds the analyze command flags
type Options struct {
	Format        string
	CalorieTarget int
	ProteinTarget int
	Goal          string
}

// advisorProfile returns the personal profile given on the command line, or nil
func (o *Options) advisorProfile() (*advisor.Profile, error) {
	if o.CalorieTarget == 0 && o.ProteinTarget == 0 && o.Goal == "" {
		return nil, nil
	}
	if o.CalorieTarget < 0 || o.ProteinTarget < 0 {
		return nil, errors.Newf("calorie and protein targets must not be negative").
			Component("analyze").
			Category(errors.CategoryValidation).
			Build()
	}
	if o.Goal != "" && !profile.ValidGoal(o.Goal) {
		return nil, errors.Newf("goal must be one of %s, %s, %s",
			advisor.GoalWeightLoss, advisor.GoalMuscleGain, advisor.GoalMaintenance).
			Component("analyze").
			Category(errors.CategoryValidation).
			Context("goal", o.Goal).
			Build()
	}
	return &advisor.Profile{
		DailyCalorieTarget: o.CalorieTarget,
		DailyProteinTarget: o.ProteinTarget,
		HealthGoal:         o.Goal,
	}, nil
}

// Command creates the analyze command
func Command(settings *conf.Settings) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "analyze <image|url>",
		Short: "Analyze a meal photo",
		Long:  "Recognise the foods in a meal photo file or URL and print the nutrition report.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), settings, args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatJSON, "Output format: json, yaml")
	cmd.Flags().IntVar(&opts.CalorieTarget, "calorie-target", 0, "Daily calorie target for personal alerts")
	cmd.Flags().IntVar(&opts.ProteinTarget, "protein-target", 0, "Daily protein target in grams for personal alerts")
	cmd.Flags().StringVar(&opts.Goal, "goal", "", "Health goal: weight_loss, muscle_gain, maintenance")

	return cmd
}

// Run analyzes the photo at source and writes the report to w
func Run(ctx context.Context, settings *conf.Settings, source string, opts *Options, w io.Writer) error {
	format := strings.ToLower(opts.Format)
	if format != FormatJSON && format != FormatYAML {
		return errors.Newf("unsupported output format %q", opts.Format).
			Component("analyze").
			Category(errors.CategoryValidation).
			Build()
	}

	p, err := opts.advisorProfile()
	if err != nil {
		return err
	}

	maxBytes := max(settings.WebServer.UploadLimit, 1) << 20
	client := &http.Client{Timeout: fetchTimeout}
	photo, err := imaging.Open(ctx, client, source, maxBytes)
	if err != nil {
		return err
	}

	pipeline, cleanup := recognition.Setup(ctx, settings, nil)
	defer cleanup()

	result, err := pipeline.Recognize(ctx, photo, p)
	if err != nil {
		return err
	}

	return write(w, format, result)
}

func write(w io.Writer, format string, result *recognition.Result) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("error encoding yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("error encoding json: %w", err)
	}
	return nil
}
