// Package cli defines the cobra command tree for rent-finder.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/client"
	"github.com/evcraddock/rent-finder/internal/localstore"
	"github.com/evcraddock/rent-finder/internal/logging"
	"github.com/evcraddock/rent-finder/internal/notify"
	"github.com/evcraddock/rent-finder/internal/reconcile"
	"github.com/evcraddock/rent-finder/internal/session"
)

var (
	flagFormat  string
	flagServer  string
	flagData    string
	flagVerbose bool
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rf",
		Short:         "Find, list and apply for rentals",
		Long:          "A tool for renters and landlords. Browse listings, keep favorites and saved searches, apply, and manage your own listings. Works signed out with local data, or signed in against a rent-finder server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupCLI(cmd.ErrOrStderr(), flagVerbose)
		},
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "server URL (default: from config or http://localhost:8080)")
	root.PersistentFlags().StringVar(&flagData, "data", "", "local data path (default: ~/.config/rf/local.db)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newServeCmd(),
		newSignupCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVerifyCmd(),
		newListCmd(),
		newShowCmd(),
		newFavCmd(),
		newFavsCmd(),
		newListingsCmd(),
		newListingCmd(),
		newApplyCmd(),
		newApplicationsCmd(),
		newApplicationCmd(),
		newIncomingCmd(),
		newDecideCmd(),
		newSearchesCmd(),
		newSearchCmd(),
		newInquireCmd(),
		newInboxCmd(),
		newReviewCmd(),
		newReviewsCmd(),
		newUploadCmd(),
		newLocalCmd(),
		newVersionCmd(),
	)

	return root
}

// app is what a client command works with: the restored session, an API
// client that refreshes through it, and the local store.
type app struct {
	out     io.Writer
	api     *client.Client
	session *session.Context
	store   *localstore.Store
	deps    reconcile.Deps
}

// newApp restores the session and opens the local store.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	server := getServerURL()
	creds := fileCredentials{}

	sess := session.New(client.New(server), creds)
	if err := sess.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return nil, err
	}

	a := &app{
		out:     cmd.OutOrStdout(),
		api:     client.New(server, client.WithTokenSource(sess)),
		session: sess,
		store:   store,
	}
	// Mutation results go to stderr so JSON output stays clean.
	a.deps = reconcile.Deps{Session: sess, Store: store, Notifier: notify.Writer(cmd.ErrOrStderr())}
	return a, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing local store: %v\n", err)
	}
}

// withApp runs fn with a fresh app and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

// requireLogin fails with a hint when nobody is signed in.
func (a *app) requireLogin() error {
	if !a.session.IsLoggedIn() {
		return fmt.Errorf("not logged in: run 'rf login' first")
	}
	return nil
}

func openStore() (*localstore.Store, error) {
	path := flagData
	if path == "" {
		var err error
		path, err = localstore.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return localstore.Open(path)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
