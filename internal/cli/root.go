// Package cli implements the travelbuddy command line: running the HTTP
// server, running a single search from the terminal and managing the stored
// credentials.
package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/travelbuddy/internal/config"
	"github.com/Backland-Labs/travelbuddy/internal/logger"
	"github.com/Backland-Labs/travelbuddy/internal/orchestrator"
	"github.com/Backland-Labs/travelbuddy/internal/output"
	"github.com/Backland-Labs/travelbuddy/internal/search"
)

const version = "1.0.0"

// errSearchFailed signals a failed search whose message was already printed
var errSearchFailed = errors.New("search failed")

// Execute runs the CLI
func Execute() error {
	err := NewRootCommand().Execute()
	if err != nil && !errors.Is(err, errSearchFailed) {
		output.NewPrinter().Error("%v", err)
	}
	return err
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithDeps(NewRealDependencies())
}

// NewRootCommandWithDeps creates the root command with injected dependencies
func NewRootCommandWithDeps(deps *Dependencies) *cobra.Command {
	var showVersion bool

	cmd := &cobra.Command{
		Use:   "travelbuddy",
		Short: "TravelBuddy - natural language travel and rental search",
		Long: `TravelBuddy - natural language travel and rental search

TravelBuddy relays free-text travel queries to an OpenAI assistant, answers
the assistant's tool calls, and returns the structured result as JSON.

Examples:
  travelbuddy serve --port 3001
  travelbuddy search "2BR apartment in SF starting July 2023"
  travelbuddy settings set --api-key sk-... --assistant-id asst_...
  travelbuddy settings show`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "travelbuddy version "+version)
				return err
			}
			return cmd.Help()
		},
	}

	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	cmd.AddCommand(
		newServeCommand(deps),
		newSearchCommand(deps),
		newSettingsCommand(deps),
	)

	return cmd
}

// loadConfig loads configuration and points the global logger at it
func loadConfig(deps *Dependencies) (*config.Config, error) {
	cfg, err := deps.ConfigLoader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.InitializeFromConfig(cfg)
	return cfg, nil
}

// newOrchestrator wires the run orchestrator from configuration
func newOrchestrator(deps *Dependencies, cfg *config.Config) *orchestrator.Orchestrator {
	return orchestrator.New(deps.Clients(cfg),
		orchestrator.WithPollDelay(cfg.Poll.Delay),
		orchestrator.WithMaxAttempts(cfg.Poll.MaxAttempts),
	)
}

// requestHeadroom covers the remote calls made outside the poll loop
const requestHeadroom = 30 * time.Second

// searchTimeout returns the caller-side cap for one search: the configured
// value, or the orchestrator's full poll ceiling plus headroom
func searchTimeout(cfg *config.Config, orch *orchestrator.Orchestrator) time.Duration {
	if cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return orch.PollCeiling() + requestHeadroom
}

// credentialsFrom adapts the configuration to the search boundary, re-reading
// the settings file on every request
func credentialsFrom(cfg *config.Config) search.CredentialsProvider {
	return search.CredentialsFunc(func() orchestrator.Credentials {
		creds, err := cfg.CurrentCredentials()
		if err != nil {
			logger.WithField("error", err.Error()).Warn("Failed to reload settings file, using startup credentials")
			creds = cfg.Credentials
		}
		return orchestrator.Credentials{APIKey: creds.APIKey, AssistantID: creds.AssistantID}
	})
}

func printerFor(deps *Dependencies, cmd *cobra.Command) *output.Printer {
	return deps.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
}
