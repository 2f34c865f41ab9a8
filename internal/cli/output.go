package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/raysh454/linkscout/internal/model"
)

type printer struct {
	w      io.Writer
	format string
}

func (p printer) isJSON() bool { return p.format == outputJSON }

func (p printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p printer) table(title string, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func (p printer) opportunities(title string, opps []model.LinkOpportunity) {
	rows := make([]table.Row, 0, len(opps))
	for _, o := range opps {
		rows = append(rows, table.Row{
			o.Domain,
			o.OpportunityType,
			o.Priority,
			fmt.Sprintf("%.0f", o.EstimatedDA),
			fmt.Sprintf("%.0f%%", o.SuccessProbability),
			o.EffortRequired,
			o.URL,
		})
	}
	p.table(title, table.Row{"Domain", "Type", "Priority", "DA", "Success", "Effort", "URL"}, rows)
}

func (p printer) serpResults(results []model.SERPResult) {
	rows := make([]table.Row, 0, len(results))
	for _, r := range results {
		dr := "-"
		if r.DomainRating != nil {
			dr = fmt.Sprintf("%.0f", *r.DomainRating)
		}
		email := ""
		if r.ContactInfo != nil {
			email = r.ContactInfo.Email
		}
		rows = append(rows, table.Row{
			r.Position,
			r.Domain,
			r.OpportunityType,
			dr,
			fmt.Sprintf("%.1f", r.OpportunityScore),
			r.DifficultyLevel,
			fmt.Sprintf("%.0f%%", r.EstimatedSuccessRate),
			email,
		})
	}
	p.table("SERP results", table.Row{"#", "Domain", "Type", "DR", "Score", "Difficulty", "Success", "Contact"}, rows)
}
