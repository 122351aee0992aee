package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/rent-finder/internal/application"
	"github.com/evcraddock/rent-finder/internal/inquiry"
	"github.com/evcraddock/rent-finder/internal/property"
	"github.com/evcraddock/rent-finder/internal/review"
	"github.com/evcraddock/rent-finder/internal/savedsearch"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single listing in text format.
func printPropertySummary(w io.Writer, p *property.Property) {
	fmt.Fprintf(w, "Listing %s\n", p.ID)
	fmt.Fprintf(w, "  Title:    %s\n", p.Title)
	if addr := p.Address.String(); addr != "" {
		fmt.Fprintf(w, "  Address:  %s\n", addr)
	}
	fmt.Fprintf(w, "  Rent:     %s\n", property.FormatPrice(p.PriceCents))
	fmt.Fprintf(w, "  Beds:     %d\n", p.Bedrooms)
	fmt.Fprintf(w, "  Baths:    %g\n", p.Bathrooms)
	if p.SquareFeet > 0 {
		fmt.Fprintf(w, "  Sqft:     %d\n", p.SquareFeet)
	}
	if p.PropertyType != "" {
		fmt.Fprintf(w, "  Type:     %s\n", p.PropertyType)
	}
	fmt.Fprintf(w, "  Status:   %s\n", p.Status)
	if p.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", p.Description)
	}
	for _, img := range p.Images {
		fmt.Fprintf(w, "  Image:    %s\n", img)
	}
}

// printPropertyTable prints listings as a formatted table.
func printPropertyTable(w io.Writer, props []property.Property) error {
	if len(props) == 0 {
		fmt.Fprintln(w, "No listings found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTITLE\tCITY\tRENT\tBED\tBATH\tSTATUS"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, p := range props {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%g\t%s\n",
			p.ID, truncate(p.Title, 32), p.Address.City, property.FormatPrice(p.PriceCents),
			p.Bedrooms, p.Bathrooms, p.Status); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(w, "\nTotal: %d listings\n", len(props))
	return nil
}

// printApplicationTable prints applications as a formatted table.
func printApplicationTable(w io.Writer, apps []application.Application) error {
	if len(apps) == 0 {
		fmt.Fprintln(w, "No applications.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tLISTING\tSTEP\tSTATUS\tUPDATED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, a := range apps {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			a.ID, a.PropertyID, a.Step, a.Status, a.UpdatedAt.Format("2006-01-02 15:04")); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return tw.Flush()
}

// printSearches prints saved searches with their filters.
func printSearches(w io.Writer, searches []savedsearch.SavedSearch) {
	if len(searches) == 0 {
		fmt.Fprintln(w, "No saved searches.")
		return
	}
	for _, s := range searches {
		filters := s.Filters.Query().Encode()
		if filters == "" {
			filters = "any"
		}
		fmt.Fprintf(w, "%s  %s\n  %s\n", s.ID, s.Name, strings.ReplaceAll(filters, "&", " "))
	}
}

// printInquiries prints contact messages.
func printInquiries(w io.Writer, qs []inquiry.Inquiry) {
	if len(qs) == 0 {
		fmt.Fprintln(w, "No messages.")
		return
	}
	for _, q := range qs {
		fmt.Fprintf(w, "[%s] %s <%s> about %s\n  %s\n\n",
			q.CreatedAt.Format("2006-01-02 15:04"), q.Name, q.Email, q.PropertyID, q.Message)
	}
}

// printReviews prints reviews in text format.
func printReviews(w io.Writer, reviews []*review.Review) {
	if len(reviews) == 0 {
		fmt.Fprintln(w, "No reviews.")
		return
	}
	for _, r := range reviews {
		author := r.AuthorName
		if author == "" {
			author = "anonymous"
		}
		fmt.Fprintf(w, "[%s] %s (%s)\n  %s\n\n",
			r.CreatedAt.Format("2006-01-02"), formatRating(r.Rating), author, r.Text)
	}
}

// formatRating returns a star representation of a rating (1-5).
func formatRating(rating int) string {
	rating = max(1, min(rating, 5))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func deref[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, p := range in {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
