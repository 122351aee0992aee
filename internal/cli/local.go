package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/localstore"
	"github.com/evcraddock/rent-finder/internal/reconcile"
)

// localKeys are the keys the reconcile hooks write.
var localKeys = []string{
	reconcile.KeyFavorites,
	reconcile.KeyOwnedProperties,
	reconcile.KeyOwnerApplications,
	reconcile.KeySavedSearches,
	reconcile.KeyApplications,
	reconcile.KeyContactMessages,
}

func newLocalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Show data kept on this machine for anonymous use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *localstore.Store) error {
				keys, err := s.Keys(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if isJSON() {
					if keys == nil {
						keys = []string{}
					}
					return printJSON(out, keys)
				}
				if len(keys) == 0 {
					fmt.Fprintln(out, "No local data.")
					return nil
				}
				for _, k := range keys {
					fmt.Fprintln(out, k)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(newLocalClearCmd())
	return cmd
}

func newLocalClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [key...]",
		Short: "Delete local data (all of it when no key is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range args {
				if !slices.Contains(localKeys, k) {
					return fmt.Errorf("unknown key %q", k)
				}
			}
			keys := args
			if len(keys) == 0 {
				keys = localKeys
			}
			return withStore(func(s *localstore.Store) error {
				for _, k := range keys {
					if err := s.Delete(cmd.Context(), k); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Cleared %d local key(s)\n", len(keys))
				return nil
			})
		},
	}
}

// withStore opens only the local store; no session or server is needed.
func withStore(fn func(s *localstore.Store) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}
