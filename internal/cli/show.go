package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/evcraddock/rent-finder/internal/review"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show listing details",
		Long:  "Show full details for a listing, including its reviews.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return runShow(ctx, a, args[0])
			})
		},
	}
}

func runShow(ctx context.Context, a *app, id string) error {
	p, err := a.api.GetProperty(ctx, id)
	if err != nil {
		return err
	}
	reviews, err := a.api.ListReviews(ctx, id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(a.out, struct {
			Property *property.Property `json:"property"`
			Reviews  []*review.Review   `json:"reviews"`
		}{p, reviews})
	}

	printPropertySummary(a.out, p)
	fmt.Fprintln(a.out)
	if len(reviews) > 0 {
		fmt.Fprintf(a.out, "Reviews (%d):\n", len(reviews))
	}
	printReviews(a.out, reviews)
	return nil
}

func newReviewsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reviews <listing-id>",
		Short: "List reviews of a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				reviews, err := a.api.ListReviews(ctx, args[0])
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(a.out, reviews)
				}
				printReviews(a.out, reviews)
				return nil
			})
		},
	}
}
