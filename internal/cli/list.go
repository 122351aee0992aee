package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/property"
)

// filterFlags binds the listing search flags shared by list and search.
type filterFlags struct {
	city      string
	kind      string
	minPrice  int64
	maxPrice  int64
	beds      int
	baths     float64
	setFields func(name string) bool
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.city, "city", "", "city")
	cmd.Flags().StringVar(&f.kind, "type", "", "property type (apartment, house, ...)")
	cmd.Flags().Int64Var(&f.minPrice, "min-price", 0, "minimum monthly rent in dollars")
	cmd.Flags().Int64Var(&f.maxPrice, "max-price", 0, "maximum monthly rent in dollars")
	cmd.Flags().IntVar(&f.beds, "beds", 0, "minimum bedrooms")
	cmd.Flags().Float64Var(&f.baths, "baths", 0, "minimum bathrooms")
	f.setFields = cmd.Flags().Changed
}

func (f *filterFlags) filters() property.Filters {
	out := property.Filters{City: f.city, PropertyType: f.kind}
	if f.setFields("min-price") {
		v := f.minPrice * 100
		out.MinPriceCents = &v
	}
	if f.setFields("max-price") {
		v := f.maxPrice * 100
		out.MaxPriceCents = &v
	}
	if f.setFields("beds") {
		v := f.beds
		out.MinBedrooms = &v
	}
	if f.setFields("baths") {
		v := f.baths
		out.MinBathrooms = &v
	}
	return out
}

func newListCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search rental listings",
		Long:  "List available rentals, optionally filtered by city, type, rent and size.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				props, err := a.api.ListProperties(ctx, ff.filters())
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(a.out, props)
				}
				return printPropertyTable(a.out, deref(props))
			})
		},
	}

	ff.bind(cmd)

	return cmd
}
