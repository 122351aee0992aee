package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/auth"
	"github.com/evcraddock/rent-finder/internal/validate"
)

func newLoginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the server",
		Long:  "Log in with email and password. The session is stored in ~/.config/rf/config.yaml and refreshed automatically.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return runLogin(ctx, cmd, a, email)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runLogin(ctx context.Context, cmd *cobra.Command, a *app, email string) error {
	password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, email, password); err != nil {
		return err
	}

	return printSession(a)
}

func newSignupCmd() *cobra.Command {
	var (
		email string
		name  string
		role  string
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long:  "Create an account and log in. Landlords can publish listings; tenants browse and apply.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := auth.Role(role)
			if r != auth.RoleTenant && r != auth.RoleLandlord {
				return fmt.Errorf("role must be tenant or landlord, got %q", role)
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return runSignup(ctx, cmd, a, email, name, r)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name (default: the part of the email before @)")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleTenant), "tenant or landlord")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runSignup(ctx context.Context, cmd *cobra.Command, a *app, email, name string, role auth.Role) error {
	in := cmd.InOrStdin()
	password, err := readPassword(in, cmd.ErrOrStderr(), "Password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword(in, cmd.ErrOrStderr(), "Confirm password: ")
	if err != nil {
		return err
	}
	if err := validate.PasswordsMatch(password, confirm); err != nil {
		return err
	}

	if strings.TrimSpace(name) == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	if err := a.session.Signup(ctx, email, name, password, role); err != nil {
		return err
	}

	if !isJSON() {
		fmt.Fprintln(a.out, "✓ Account created. Check your email for a verification link.")
	}
	return printSession(a)
}

func printSession(a *app) error {
	u := a.session.User()
	if isJSON() {
		return printJSON(a.out, u)
	}
	if u == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", displayName(u.Name, u.Email), u.Role)
	if !u.Verified {
		fmt.Fprintln(a.out, "Email not verified. Run 'rf verify' to resend the link.")
	}
	return nil
}

func displayName(name, email string) string {
	if strings.TrimSpace(name) == "" {
		return email
	}
	return name + " <" + email + ">"
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		Long:  "Revokes the stored session and removes it from the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return runLogout(ctx, a)
			})
		},
	}
}

func runLogout(ctx context.Context, a *app) error {
	if !a.session.IsLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "✓ Logged out.")
	return nil
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Resend the email verification link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.session.ResendVerificationEmail(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "✓ Verification email sent.")
				return nil
			})
		},
	}
}
