package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/evcraddock/rent-finder/internal/reconcile"
)

func newListingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listings",
		Short: "List your own listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				props := reconcile.NewOwnedProperties(a.deps, a.api)
				defer props.Close()

				if err := load(ctx, cmd.ErrOrStderr(), props); err != nil {
					return err
				}
				if isJSON() {
					return printJSON(a.out, props.Items())
				}
				return printPropertyTable(a.out, props.Items())
			})
		},
	}
}

// listingFlags binds the editable listing fields.
type listingFlags struct {
	title       string
	description string
	price       int64
	street      string
	city        string
	state       string
	zip         string
	kind        string
	beds        int
	baths       float64
	sqft        int
	images      []string
	status      string
	changed     func(name string) bool
}

func (f *listingFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "listing title")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().Int64Var(&f.price, "price", 0, "monthly rent in dollars")
	cmd.Flags().StringVar(&f.street, "street", "", "street address")
	cmd.Flags().StringVar(&f.city, "city", "", "city")
	cmd.Flags().StringVar(&f.state, "state", "", "state")
	cmd.Flags().StringVar(&f.zip, "zip", "", "postal code")
	cmd.Flags().StringVar(&f.kind, "type", "", "property type")
	cmd.Flags().IntVar(&f.beds, "beds", 0, "bedrooms")
	cmd.Flags().Float64Var(&f.baths, "baths", 0, "bathrooms")
	cmd.Flags().IntVar(&f.sqft, "sqft", 0, "square feet")
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "image URL (repeatable)")
	cmd.Flags().StringVar(&f.status, "status", "", "available, pending or archived")
	f.changed = cmd.Flags().Changed
}

// apply copies the flags that were set onto p.
func (f *listingFlags) apply(p *property.Property) {
	if f.changed("title") {
		p.Title = f.title
	}
	if f.changed("description") {
		p.Description = f.description
	}
	if f.changed("price") {
		p.PriceCents = f.price * 100
	}
	if f.changed("street") {
		p.Address.Street = f.street
	}
	if f.changed("city") {
		p.Address.City = f.city
	}
	if f.changed("state") {
		p.Address.State = f.state
	}
	if f.changed("zip") {
		p.Address.Zip = f.zip
	}
	if f.changed("type") {
		p.PropertyType = f.kind
	}
	if f.changed("beds") {
		p.Bedrooms = f.beds
	}
	if f.changed("baths") {
		p.Bathrooms = f.baths
	}
	if f.changed("sqft") {
		p.SquareFeet = f.sqft
	}
	if f.changed("image") {
		p.Images = f.images
	}
	if f.changed("status") {
		p.Status = property.Status(f.status)
	}
}

func newListingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Manage your listings",
	}
	cmd.AddCommand(newListingAddCmd(), newListingUpdateCmd(), newListingArchiveCmd())
	return cmd
}

func newListingAddCmd() *cobra.Command {
	var lf listingFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				props := reconcile.NewOwnedProperties(a.deps, a.api)
				defer props.Close()

				var p property.Property
				lf.apply(&p)
				created, err := props.Create(ctx, p)
				if err != nil {
					return err
				}
				return printListing(a, &created)
			})
		},
	}

	lf.bind(cmd)
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newListingUpdateCmd() *cobra.Command {
	var lf listingFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				props := reconcile.NewOwnedProperties(a.deps, a.api)
				defer props.Close()

				if err := load(ctx, cmd.ErrOrStderr(), props); err != nil {
					return err
				}
				p, ok := props.Find(args[0])
				if !ok {
					return fmt.Errorf("listing %s not found", args[0])
				}
				lf.apply(&p)
				updated, err := props.Update(ctx, p)
				if err != nil {
					return err
				}
				return printListing(a, &updated)
			})
		},
	}

	lf.bind(cmd)

	return cmd
}

func newListingArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Take a listing off the market",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				props := reconcile.NewOwnedProperties(a.deps, a.api)
				defer props.Close()

				archived, err := props.Archive(ctx, args[0])
				if err != nil {
					return err
				}
				return printListing(a, &archived)
			})
		},
	}
}

func printListing(a *app, p *property.Property) error {
	if isJSON() {
		return printJSON(a.out, p)
	}
	printPropertySummary(a.out, p)
	return nil
}
