package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/raysh454/linkscout/internal/app"
	"github.com/raysh454/linkscout/internal/model"
	"github.com/raysh454/linkscout/internal/session"
)

type filterFlags struct {
	minDR   float64
	maxSpam float64
	exclude []string
	include []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.minDR, "min-dr", 0, "drop candidates below this domain rating")
	cmd.Flags().Float64Var(&f.maxSpam, "max-spam", 0, "drop candidates above this spam score")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "domains never returned")
	cmd.Flags().StringSliceVar(&f.include, "include-only", nil, "only return these domains")
}

// filters leaves thresholds unset unless their flag was given.
func (f *filterFlags) filters(cmd *cobra.Command) model.Filters {
	out := model.Filters{ExcludeDomains: f.exclude, IncludeOnly: f.include}
	if cmd.Flags().Changed("min-dr") {
		v := f.minDR
		out.MinDomainRating = &v
	}
	if cmd.Flags().Changed("max-spam") {
		v := f.maxSpam
		out.MaxSpamScore = &v
	}
	return out
}

type scanReport struct {
	Job           *app.Job                `json:"job"`
	Results       *session.Results        `json:"results"`
	Opportunities []model.LinkOpportunity `json:"opportunities"`
}

func newScanCommand(opts *rootOptions) *cobra.Command {
	var (
		cfg      model.ScanConfiguration
		analysis string
		watch    bool
		filt     filterFlags
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a full scan for a keyword and print its opportunities.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.AnalysisDepth = model.AnalysisDepth(analysis)
			cfg.Filters = filt.filters(cmd)
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
				job, err := a.Orch.StartScan(ctx, cfg)
				if err != nil {
					return err
				}
				if err := waitForScan(ctx, a.Orch, job, watch, cmd.ErrOrStderr()); err != nil {
					return err
				}

				report := scanReport{Job: a.Orch.GetJob(job.ID)}
				if report.Results, err = a.Orch.GetResults(ctx, job.ID); err != nil {
					return err
				}
				if report.Opportunities, err = a.Orch.GetOpportunities(ctx, job.ID); err != nil {
					return err
				}
				return printScan(printer{w: cmd.OutOrStdout(), format: opts.output}, report)
			})
		},
	}
	cmd.Flags().StringVarP(&cfg.Keyword, "keyword", "k", "", "keyword to target (required)")
	cmd.Flags().IntVar(&cfg.SearchDepth, "depth", 20, "number of search positions to analyze (1-100)")
	cmd.Flags().StringVar(&cfg.Location, "location", "", "location hint for the search provider")
	cmd.Flags().StringVar(&cfg.Language, "language", "", "language hint for the search provider")
	cmd.Flags().StringSliceVar(&cfg.CompetitorDomains, "competitor", nil, "competitor domain to analyze (repeatable)")
	cmd.Flags().StringVar(&analysis, "analysis", string(model.DepthBasic), "analysis depth: basic|detailed|comprehensive")
	cmd.Flags().BoolVar(&watch, "watch", false, "print progress events to stderr")
	filt.register(cmd)
	_ = cmd.MarkFlagRequired("keyword")
	return cmd
}

// waitForScan consumes job events until the pipeline closes the channel.
// When ctx is done first the scan is canceled and ctx's error returned.
func waitForScan(ctx context.Context, orch *app.Orchestrator, job *app.Job, watch bool, stderr io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			err := orch.CancelScan(context.WithoutCancel(ctx), job.ID)
			if err != nil && !errors.Is(err, model.ErrInvalidStateTransition) {
				fmt.Fprintf(stderr, "%s: cancel: %v\n", job.ID, err)
			}
			for range job.Events {
			}
			return ctx.Err()
		case ev, ok := <-job.Events:
			if !ok {
				return nil
			}
			if !watch {
				continue
			}
			switch ev.Type {
			case app.JobEventProgress:
				fmt.Fprintf(stderr, "%s: %s finished (%d/%d)\n", ev.JobID, ev.Task, ev.Processed, ev.Total)
			default:
				fmt.Fprintf(stderr, "%s: %s %s\n", ev.JobID, ev.Status, ev.Error)
			}
		}
	}
}

func printScan(p printer, r scanReport) error {
	if p.isJSON() {
		return p.json(r)
	}
	status := string(r.Results.Status)
	if r.Results.FailureReason != "" {
		status += " (" + r.Results.FailureReason + ")"
	}
	rows := make([]table.Row, 0, len(r.Job.Tasks))
	for _, t := range r.Job.Tasks {
		rows = append(rows, table.Row{t.Name, t.Outcome, t.Opportunities, t.Stored, t.Missing, t.Error})
	}
	p.table(fmt.Sprintf("Scan %s: %s", r.Results.SessionID, status),
		table.Row{"Task", "Outcome", "Found", "Stored", "Missing", "Error"}, rows)
	p.serpResults(r.Results.Results)
	if len(r.Opportunities) > 0 {
		p.opportunities("Opportunities", r.Opportunities)
	}
	return nil
}
