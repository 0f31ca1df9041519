// Package foods implements the foods command that lists the food catalog.
package foods

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tphakala/nutritive-go/internal/catalog"
	"github.com/tphakala/nutritive-go/internal/conf"
	"github.com/tphakala/nutritive-go/internal/errors"
)

// Command creates the foods command
func Command(settings *conf.Settings) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "foods",
		Short: "List the supported foods",
		Long:  "Print the food catalog, or the full record of one food with --id.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(settings.Catalog.Path)
			if err != nil {
				return err
			}
			if id != "" {
				return PrintFood(cmd.OutOrStdout(), cat, id)
			}
			return PrintCatalog(cmd.OutOrStdout(), cat)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Print the full record of one food")

	return cmd
}

// PrintCatalog writes one line per food in catalog order
func PrintCatalog(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tKCAL/100G\tWARNINGS")
	for _, f := range cat.Foods() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f\t%s\n",
			f.ID, f.Name, f.Category, f.Per100g.Calories, strings.Join(f.Warnings, ", "))
	}
	return tw.Flush()
}

// PrintFood writes the JSON record of the food with the given id
func PrintFood(w io.Writer, cat *catalog.Catalog, id string) error {
	food, ok := cat.Lookup(id)
	if !ok {
		return errors.Newf("food '%s' not found", id).
			Component("foods").
			Category(errors.CategoryNotFound).
			Build()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(food)
}
