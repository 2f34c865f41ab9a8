package cli

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/raysh454/linkscout/internal/app"
	"github.com/raysh454/linkscout/internal/competitor"
)

func newCompetitorsCommand(opts *rootOptions) *cobra.Command {
	var domains, keywords []string
	cmd := &cobra.Command{
		Use:   "competitors",
		Short: "Profile competitor backlinks and list the gaps.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
				res, err := a.Orch.AnalyzeCompetitors(ctx, domains, keywords)
				if err != nil {
					return err
				}
				return printCompetitors(printer{w: cmd.OutOrStdout(), format: opts.output}, res)
			})
		},
	}
	cmd.Flags().StringSliceVarP(&domains, "domain", "d", nil, "competitor domain (repeatable, required)")
	cmd.Flags().StringSliceVarP(&keywords, "keyword", "k", nil, "target keyword (repeatable)")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

func printCompetitors(p printer, res *competitor.Result) error {
	if p.isJSON() {
		return p.json(res)
	}
	rows := make([]table.Row, 0, len(res.Analyses)+len(res.Failures))
	for _, an := range res.Analyses {
		rows = append(rows, table.Row{
			an.CompetitorDomain,
			fmt.Sprintf("%.0f", an.DomainRating),
			an.BacklinkCount,
			an.ReferringDomains,
			len(an.GapOpportunities),
			"",
		})
	}
	for _, f := range res.Failures {
		rows = append(rows, table.Row{f.Domain, "-", "-", "-", "-", f.Reason})
	}
	p.table("Competitors", table.Row{"Domain", "DR", "Backlinks", "Referring", "Gaps", "Error"}, rows)
	p.opportunities("Gap opportunities", res.Opportunities)
	return nil
}
