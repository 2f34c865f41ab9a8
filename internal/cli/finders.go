package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/raysh454/linkscout/internal/app"
	"github.com/raysh454/linkscout/internal/model"
)

func newResourcesCommand(opts *rootOptions) *cobra.Command {
	var (
		keywords []string
		filt     filterFlags
	)
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Search for resource pages that could list your site.",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := filt.filters(cmd)
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
				opps, err := a.Orch.FindResourcePageOpportunities(ctx, keywords, filters)
				if err != nil {
					return err
				}
				return printOpportunities(printer{w: cmd.OutOrStdout(), format: opts.output}, "Resource pages", opps)
			})
		},
	}
	cmd.Flags().StringSliceVarP(&keywords, "keyword", "k", nil, "keyword (repeatable, required)")
	filt.register(cmd)
	_ = cmd.MarkFlagRequired("keyword")
	return cmd
}

func newBrokenLinksCommand(opts *rootOptions) *cobra.Command {
	var (
		domain   string
		keywords []string
	)
	cmd := &cobra.Command{
		Use:   "broken-links",
		Short: "List dead outbound links on a domain as replacement pitches.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
				opps, err := a.Orch.FindBrokenLinkOpportunities(ctx, domain, keywords)
				if err != nil {
					return err
				}
				return printOpportunities(printer{w: cmd.OutOrStdout(), format: opts.output}, "Broken links on "+domain, opps)
			})
		},
	}
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "domain to inspect (required)")
	cmd.Flags().StringSliceVarP(&keywords, "keyword", "k", nil, "keywords used to rank relevance")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

func printOpportunities(p printer, title string, opps []model.LinkOpportunity) error {
	if p.isJSON() {
		return p.json(opps)
	}
	p.opportunities(title, opps)
	return nil
}
