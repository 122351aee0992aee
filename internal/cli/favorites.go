package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/reconcile"
)

// loaded is a reconcile hook as the CLI uses it.
type loaded interface {
	Load(ctx context.Context) error
	State() reconcile.State
	Err() error
}

// load fills h and warns on stderr when the server could not be reached.
func load(ctx context.Context, errOut io.Writer, h loaded) error {
	if err := h.Load(ctx); err != nil {
		return err
	}
	if h.State() == reconcile.ReadyFallback {
		fmt.Fprintf(errOut, "warning: server unavailable, showing local data (%v)\n", h.Err())
	}
	return nil
}

func newFavCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fav <listing-id>",
		Short: "Add or remove a favorite",
		Long:  "Toggle a listing in your favorites. Signed out, favorites are kept locally.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				favs := reconcile.NewFavorites(a.deps, a.api)
				defer favs.Close()

				on, err := favs.Toggle(ctx, args[0])
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(a.out, map[string]any{"property_id": args[0], "favorite": on})
				}
				return nil
			})
		},
	}
}

func newFavsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favs",
		Short: "List favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				favs := reconcile.NewFavorites(a.deps, a.api)
				defer favs.Close()

				if err := load(ctx, cmd.ErrOrStderr(), favs); err != nil {
					return err
				}
				ids := favs.IDs()
				if isJSON() {
					if ids == nil {
						ids = []string{}
					}
					return printJSON(a.out, ids)
				}
				if len(ids) == 0 {
					fmt.Fprintln(a.out, "No favorites.")
					return nil
				}
				for _, id := range ids {
					fmt.Fprintln(a.out, id)
				}
				return nil
			})
		},
	}
}
