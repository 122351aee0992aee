package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `review <listing-id> <1-5> "text"`,
		Short: "Review a listing",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil || rating < 1 || rating > 5 {
				return fmt.Errorf("rating must be 1-5, got %s", args[1])
			}
			text := strings.Join(args[2:], " ")

			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.requireLogin(); err != nil {
					return err
				}
				r, err := a.api.CreateReview(ctx, args[0], rating, text)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(a.out, r)
				}
				fmt.Fprintf(a.out, "✓ Review added %s\n", formatRating(r.Rating))
				return nil
			})
		},
	}
}
