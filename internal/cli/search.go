package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/travelbuddy/internal/search"
)

func newSearchCommand(deps *Dependencies) *cobra.Command {
	var dataOnly bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search query and print the result",
		Long: `Run one search query and print the {success, data} envelope.

The query is cleaned and stamped with today's date exactly as it would be
when submitted through the web widget.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSearch(ctx, cmd, deps, strings.Join(args, " "), dataOnly)
		},
	}

	cmd.Flags().BoolVar(&dataOnly, "data", false, "Print only the data field of a successful result")
	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, deps *Dependencies, query string, dataOnly bool) error {
	cfg, err := loadConfig(deps)
	if err != nil {
		return err
	}
	printer := printerFor(deps, cmd)

	orch := newOrchestrator(deps, cfg)
	handler := search.NewHandler(orch, credentialsFrom(cfg), search.Options{
		Timeout:       searchTimeout(cfg, orch),
		MaxConcurrent: cfg.MaxConcurrent,
	})

	progress := printer.StartProgress("Searching")
	// the first status check comes after one poll delay
	waiting := time.AfterFunc(cfg.Poll.Delay, func() {
		progress.UpdateMessage("Waiting for the assistant")
	})
	resp := handler.Handle(ctx, search.Request{Query: query})
	waiting.Stop()
	progress.Stop()

	if !resp.Success {
		printer.Error("%v", resp.Data)
		return errSearchFailed
	}

	if dataOnly {
		return printer.JSON(resp.Data)
	}
	return printer.JSON(resp)
}
