package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and login status",
		Long:  "Shows the configured server and whether the stored session is still valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return runStatus(a)
			})
		},
	}
}

type statusOutput struct {
	Server   string `json:"server"`
	LoggedIn bool   `json:"logged_in"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Verified bool   `json:"verified"`
}

func runStatus(a *app) error {
	s := a.session.Current()
	out := statusOutput{
		Server:   a.api.BaseURL(),
		LoggedIn: s.Present(),
		Email:    s.Email,
		Role:     string(s.Role),
		Verified: s.Verified,
	}
	if isJSON() {
		return printJSON(a.out, out)
	}

	fmt.Fprintf(a.out, "Server:  %s\n", out.Server)
	if !out.LoggedIn {
		fmt.Fprintln(a.out, "Session: not logged in (using local data)")
		fmt.Fprintln(a.out, "\nRun 'rf login' to authenticate.")
		return nil
	}
	fmt.Fprintf(a.out, "Session: ✓ %s (%s)\n", displayName(s.Name, s.Email), s.Role)
	if !s.Verified {
		fmt.Fprintln(a.out, "Email:   not verified")
	}
	return nil
}
