package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/application"
	"github.com/evcraddock/rent-finder/internal/reconcile"
)

// parseSections turns section.field=value pairs into form sections.
func parseSections(pairs []string) (application.Sections, error) {
	var s application.Sections
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		section, field, dotted := strings.Cut(key, ".")
		if !ok || !dotted || field == "" {
			return s, fmt.Errorf("invalid field %q: use section.field=value", pair)
		}

		var target *application.Section
		switch section {
		case "personal", "personal_info":
			target = &s.PersonalInfo
		case "history", "rental_history":
			target = &s.RentalHistory
		case "employment":
			target = &s.Employment
		case "references":
			target = &s.References
		case "disclosures":
			target = &s.Disclosures
		default:
			return s, fmt.Errorf("unknown section %q", section)
		}
		if *target == nil {
			*target = application.Section{}
		}
		(*target)[field] = value
	}
	return s, nil
}

func newApplyCmd() *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "apply <listing-id>",
		Short: "Start a rental application",
		Long: `Start an application for a listing. If one is already pending for the
listing it is shown instead. Form answers are given as section.field=value,
e.g. --set personal.name="Rita Moreno".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sections, err := parseSections(fields)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				apps := reconcile.NewApplications(a.deps, a.api)
				defer apps.Close()

				got, err := apps.Start(ctx, args[0], sections)
				if err != nil {
					return err
				}
				return printApplication(a, got)
			})
		},
	}

	cmd.Flags().StringArrayVar(&fields, "set", nil, "form answer as section.field=value (repeatable)")

	return cmd
}

func newApplicationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "applications",
		Short: "List your applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				apps := reconcile.NewApplications(a.deps, a.api)
				defer apps.Close()

				if err := load(ctx, cmd.ErrOrStderr(), apps); err != nil {
					return err
				}
				if isJSON() {
					return printJSON(a.out, apps.Items())
				}
				return printApplicationTable(a.out, apps.Items())
			})
		},
	}
}

func newApplicationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "application",
		Short: "Work on an application",
	}
	cmd.AddCommand(newApplicationAdvanceCmd(), newApplicationWithdrawCmd())
	return cmd
}

func newApplicationAdvanceCmd() *cobra.Command {
	var (
		fields    []string
		documents []string
	)

	cmd := &cobra.Command{
		Use:   "advance <id> <step>",
		Short: "Save answers and move to a later step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid step: %s", args[1])
			}
			sections, err := parseSections(fields)
			if err != nil {
				return err
			}
			var docs []string
			if cmd.Flags().Changed("document") {
				docs = documents
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				apps := reconcile.NewApplications(a.deps, a.api)
				defer apps.Close()

				got, err := apps.Advance(ctx, args[0], step, sections, docs)
				if err != nil {
					return err
				}
				return printApplication(a, got)
			})
		},
	}

	cmd.Flags().StringArrayVar(&fields, "set", nil, "form answer as section.field=value (repeatable)")
	cmd.Flags().StringArrayVar(&documents, "document", nil, "uploaded document URL (repeatable, replaces the list)")

	return cmd
}

func newApplicationWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <id>",
		Short: "Withdraw a pending application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				apps := reconcile.NewApplications(a.deps, a.api)
				defer apps.Close()
				return apps.Withdraw(ctx, args[0])
			})
		},
	}
}

func newIncomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "incoming",
		Short: "List applications to your listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				apps := reconcile.NewOwnerApplications(a.deps, a.api)
				defer apps.Close()

				if err := load(ctx, cmd.ErrOrStderr(), apps); err != nil {
					return err
				}
				if isJSON() {
					return printJSON(a.out, apps.Items())
				}
				return printApplicationTable(a.out, apps.Items())
			})
		},
	}
}

func newDecideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decide <id> <approve|reject>",
		Short: "Approve or reject an application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var status application.Status
			switch args[1] {
			case "approve", "approved":
				status = application.StatusApproved
			case "reject", "rejected":
				status = application.StatusRejected
			default:
				return fmt.Errorf("decision must be approve or reject, got %q", args[1])
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				apps := reconcile.NewOwnerApplications(a.deps, a.api)
				defer apps.Close()

				got, err := apps.Decide(ctx, args[0], status)
				if err != nil {
					return err
				}
				return printApplication(a, got)
			})
		},
	}
}

func printApplication(a *app, got application.Application) error {
	if isJSON() {
		return printJSON(a.out, got)
	}
	fmt.Fprintf(a.out, "Application %s\n", got.ID)
	fmt.Fprintf(a.out, "  Listing:  %s\n", got.PropertyID)
	fmt.Fprintf(a.out, "  Step:     %d\n", got.Step)
	fmt.Fprintf(a.out, "  Status:   %s\n", got.Status)
	for _, d := range got.Documents {
		fmt.Fprintf(a.out, "  Document: %s\n", d)
	}
	return nil
}
