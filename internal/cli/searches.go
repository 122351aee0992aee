package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/reconcile"
	"github.com/evcraddock/rent-finder/internal/savedsearch"
)

func newSearchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "searches",
		Short: "List saved searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				searches := reconcile.NewSavedSearches(a.deps, a.api)
				defer searches.Close()

				if err := load(ctx, cmd.ErrOrStderr(), searches); err != nil {
					return err
				}
				if isJSON() {
					return printJSON(a.out, searches.Items())
				}
				printSearches(a.out, searches.Items())
				return nil
			})
		},
	}
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Manage saved searches",
	}
	cmd.AddCommand(newSearchSaveCmd(), newSearchUpdateCmd(), newSearchRemoveCmd())
	return cmd
}

func newSearchSaveCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				searches := reconcile.NewSavedSearches(a.deps, a.api)
				defer searches.Close()

				s, err := searches.Create(ctx, args[0], ff.filters())
				if err != nil {
					return err
				}
				return printSearch(a, s)
			})
		},
	}

	ff.bind(cmd)

	return cmd
}

func newSearchUpdateCmd() *cobra.Command {
	var (
		ff   filterFlags
		name string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a saved search or replace its filters",
		Long:  "Rename a saved search or replace its filters. When any filter flag is given the whole filter set is replaced.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				searches := reconcile.NewSavedSearches(a.deps, a.api)
				defer searches.Close()

				if err := load(ctx, cmd.ErrOrStderr(), searches); err != nil {
					return err
				}
				s, ok := searches.Find(args[0])
				if !ok {
					return fmt.Errorf("saved search %s not found", args[0])
				}
				if cmd.Flags().Changed("name") {
					s.Name = name
				}
				if f := ff.filters(); !f.Empty() {
					s.Filters = f
				}

				updated, err := searches.Update(ctx, s)
				if err != nil {
					return err
				}
				return printSearch(a, updated)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	ff.bind(cmd)

	return cmd
}

func newSearchRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a saved search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				searches := reconcile.NewSavedSearches(a.deps, a.api)
				defer searches.Close()
				return searches.Delete(ctx, args[0])
			})
		},
	}
}

func printSearch(a *app, s savedsearch.SavedSearch) error {
	if isJSON() {
		return printJSON(a.out, s)
	}
	printSearches(a.out, []savedsearch.SavedSearch{s})
	return nil
}
