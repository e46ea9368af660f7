package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/pillarpress/internal/config"
	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/logfields"
	"github.com/cloo-solutions/pillarpress/internal/metrics"
)

// ResolveCmd renders one document to stdout.
func ResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <kind> <slug>",
		Short: "Render a content item",
		Long:  "Resolve a slug through the configured sources and print the rendered document",
		Args:  cobra.ExactArgs(2),
		RunE:  runResolve,
	}

	cmd.Flags().StringP("output", "o", "html", "Output format (html or json)")

	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return err
	}
	slug := args[1]
	outputFormat, _ := cmd.Flags().GetString("output")

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, found, err := a.pipeline.Resolve(ctx, kind, slug)
	if err != nil {
		return fmt.Errorf("failed to resolve %s/%s: %w", kind, slug, err)
	}
	if !found {
		return fmt.Errorf("%s/%s: %w", kind, slug, domain.ErrContentNotFound)
	}

	var html strings.Builder
	if err := doc.Component(a.registry).Render(ctx, &html); err != nil {
		return fmt.Errorf("failed to render %s/%s: %w", kind, slug, err)
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return writeJSON(out, map[string]interface{}{
			"meta":     doc.Meta,
			"headings": doc.Headings,
			"excerpt":  doc.Excerpt,
			"html":     html.String(),
		})
	}
	_, err = io.WriteString(out, html.String())
	return err
}

// ListCmd prints the listing of a kind.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List visible content of a kind",
		Long:  "List the visible items of a kind, newest first, as the public listing would",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return err
	}
	outputFormat, _ := cmd.Flags().GetString("output")

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.pipeline.ListAll(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", kind, err)
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return writeJSON(out, items)
	}

	if len(items) == 0 {
		fmt.Fprintln(out, "No content found.")
		return nil
	}
	for _, m := range items {
		date := "-"
		if m.Date != nil {
			date = m.Date.Format("2006-01-02")
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t[%s]\n", date, m.Slug, m.Title, m.Source)
	}
	return nil
}

// loadApp builds the read side without migrating; these commands never write.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logfields.Setup(cfg.Debug)
	return newApp(ctx, cfg, metrics.NoopRecorder{}, false)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
