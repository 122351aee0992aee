package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/inquiry"
	"github.com/evcraddock/rent-finder/internal/reconcile"
)

func newInquireCmd() *cobra.Command {
	var q inquiry.Inquiry

	cmd := &cobra.Command{
		Use:   `inquire <listing-id> "message"`,
		Short: "Contact the agent for a listing",
		Long:  "Send a message to a listing's agent. Name and email default to your account when logged in.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				msg := q
				msg.PropertyID = args[0]
				msg.Message = strings.Join(args[1:], " ")
				if s := a.session.Current(); s.Present() {
					if msg.Name == "" {
						msg.Name = s.Name
					}
					if msg.Email == "" {
						msg.Email = s.Email
					}
				}

				inquiries := reconcile.NewInquiries(a.deps, a.api)
				defer inquiries.Close()

				sent, err := inquiries.Send(ctx, msg)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(a.out, sent)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&q.Name, "name", "", "your name")
	cmd.Flags().StringVar(&q.Email, "email", "", "your email")
	cmd.Flags().StringVar(&q.Phone, "phone", "", "your phone number")

	return cmd
}

func newInboxCmd() *cobra.Command {
	var sent bool

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Read messages about your listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var msgs []inquiry.Inquiry
				if sent {
					inquiries := reconcile.NewInquiries(a.deps, a.api)
					defer inquiries.Close()
					if err := load(ctx, cmd.ErrOrStderr(), inquiries); err != nil {
						return err
					}
					msgs = inquiries.Items()
				} else {
					if err := a.requireLogin(); err != nil {
						return err
					}
					received, err := a.api.ListInquiries(ctx)
					if err != nil {
						return err
					}
					msgs = deref(received)
				}

				if isJSON() {
					return printJSON(a.out, msgs)
				}
				printInquiries(a.out, msgs)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&sent, "sent", false, "show messages you sent instead")

	return cmd
}
