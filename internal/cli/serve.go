package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/linkscout/internal/app"
	"github.com/raysh454/linkscout/internal/logging"
	"github.com/raysh454/linkscout/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application) error {
				addr := a.Config.Server.ListenAddr
				if listen != "" {
					addr = listen
				}
				srv := server.NewServer(server.Config{ListenAddr: addr, Logger: a.Logger}, a.Orch, a.Metrics)
				httpSrv := srv.HTTPServer()

				errCh := make(chan error, 1)
				go func() {
					a.Logger.Info("listening", logging.Field{Key: "addr", Value: addr})
					errCh <- httpSrv.ListenAndServe()
				}()

				select {
				case err := <-errCh:
					if errors.Is(err, http.ErrServerClosed) {
						return nil
					}
					return err
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides server.listen_addr)")
	return cmd
}
