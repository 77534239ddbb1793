package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/api/analysis"
	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the analysis API on HOST:PORT (127.0.0.1:8000 by default).

Endpoints: GET /, GET /api/health, POST /api/analyze, POST /api/analyze-call
and GET /api/diagnostics. The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.newServer().Run(ctx)
	},
}

func (a *app) newServer() *server.Server {
	srv := server.New(server.Options{
		Addr:   a.cfg.Addr(),
		Logger: a.logger,
	})
	analysis.NewHandler(a.analyzer, a.serviceInfo(), a.store, a.logger).Register(srv.Router)
	return srv
}
