// Package cli implements the linkscout command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/linkscout/internal/app"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type rootOptions struct {
	configPath string
	output     string
}

// NewRootCommand builds the linkscout command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "linkscout",
		Short:         "linkscout finds backlink opportunities from search results, competitors and broken links.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != outputTable && opts.output != outputJSON {
				return fmt.Errorf("--output %q: want table or json", opts.output)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "output format: table|json")

	root.AddCommand(
		newServeCommand(opts),
		newScanCommand(opts),
		newCompetitorsCommand(opts),
		newResourcesCommand(opts),
		newBrokenLinksCommand(opts),
	)
	return root
}

// ExecuteContext runs the command tree and exits non-zero on error.
func ExecuteContext(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp builds the application from the --config file, runs fn and shuts
// the application down again.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.Application) error) error {
	cfg, err := app.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.NewApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := a.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "shutdown:", err)
		}
	}()

	return fn(ctx, a)
}
