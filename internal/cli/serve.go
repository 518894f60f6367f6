package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/travelbuddy/internal/logger"
	"github.com/Backland-Labs/travelbuddy/internal/nonce"
	"github.com/Backland-Labs/travelbuddy/internal/search"
	"github.com/Backland-Labs/travelbuddy/internal/server"
)

func newServeCommand(deps *Dependencies) *cobra.Command {
	var port int
	var trustProxy bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API for the search widget",
		Long: `Start the HTTP API for the search widget.

Endpoints:
  GET  /nonce    issue a token for the search page
  POST /search   run a query ({"query": "...", "nonce": "..."} or form fields)
  GET  /health   liveness check
  GET  /metrics  Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(deps)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			printer := printerFor(deps, cmd)

			if err := cfg.RequireCredentials(); err != nil {
				printer.Warning("%v; searches will fail until it is set with 'travelbuddy settings set'", err)
			}

			tokens := nonce.NewStore(cfg.Server.NonceTTL)
			orch := newOrchestrator(deps, cfg)
			timeout := searchTimeout(cfg, orch)
			handler := search.NewHandler(orch, credentialsFrom(cfg), search.Options{
				Timeout:       timeout,
				MaxConcurrent: cfg.MaxConcurrent,
				Verifier:      tokens,
			})

			srv, err := server.NewServer(handler, tokens, server.Options{
				Port:               cfg.Server.Port,
				RateLimit:          cfg.Server.RateLimit,
				NonceRateLimit:     cfg.Server.NonceRateLimit,
				CORSOrigins:        cfg.CORSOrigins,
				TrustForwardHeader: trustProxy,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			printer.Info("Listening on port %d", cfg.Server.Port)
			if cfg.IsVerbose() {
				printer.KeyValue("Search limit", cfg.Server.RateLimit)
				printer.KeyValue("Nonce limit", cfg.Server.NonceRateLimit)
				printer.KeyValue("Nonce TTL", cfg.Server.NonceTTL.String())
				printer.KeyValue("Poll", fmt.Sprintf("%d x %s", cfg.Poll.MaxAttempts, cfg.Poll.Delay))
				printer.KeyValue("Search timeout", timeout.String())
			}
			err = srv.Start(ctx)
			_ = logger.GetLogger().Sync()
			if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
				printer.Success("Server stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3001, "Port to listen on (overrides TRAVELBUDDY_HTTP_PORT)")
	cmd.Flags().BoolVar(&trustProxy, "trust-proxy", false, "Use X-Forwarded-For / X-Real-IP for per-client rate limits")
	return cmd
}
