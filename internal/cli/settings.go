package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/travelbuddy/internal/search"
	"github.com/Backland-Labs/travelbuddy/internal/settings"
)

func newSettingsCommand(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage the stored API key and assistant ID",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(
		newSettingsShowCommand(deps),
		newSettingsSetCommand(deps),
		newSettingsVerifyCommand(deps),
	)
	return cmd
}

func newSettingsShowCommand(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective credentials (API key masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(deps)
			if err != nil {
				return err
			}
			printer := printerFor(deps, cmd)

			effective := settings.Settings{APIKey: cfg.Credentials.APIKey, AssistantID: cfg.Credentials.AssistantID}
			printer.Step("Settings from %s", cfg.SettingsFile)
			printer.KeyValue("API key", orNotSet(effective.MaskedAPIKey()))
			printer.KeyValue("Assistant ID", orNotSet(effective.AssistantID))
			return nil
		},
	}
}

func newSettingsSetCommand(deps *Dependencies) *cobra.Command {
	var apiKey, assistantID string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save the API key and/or assistant ID to the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" && assistantID == "" {
				return fmt.Errorf("nothing to save: pass --api-key and/or --assistant-id")
			}

			cfg, err := loadConfig(deps)
			if err != nil {
				return err
			}
			printer := printerFor(deps, cmd)

			stored, err := settings.Load(cfg.SettingsFile)
			if err != nil {
				return err
			}
			updated := stored.Merge(settings.Settings{APIKey: apiKey, AssistantID: assistantID})
			if err := settings.Save(cfg.SettingsFile, &updated); err != nil {
				return err
			}

			printer.Success("Settings saved to %s", cfg.SettingsFile)
			printer.KeyValue("API key", orNotSet(updated.MaskedAPIKey()))
			printer.KeyValue("Assistant ID", orNotSet(updated.AssistantID))
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "OpenAI API key")
	cmd.Flags().StringVar(&assistantID, "assistant-id", "", "Assistant ID (asst_...)")
	return cmd
}

func newSettingsVerifyCommand(deps *Dependencies) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the configured assistant can be reached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(deps)
			if err != nil {
				return err
			}
			printer := printerFor(deps, cmd)

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			creds := credentialsFrom(cfg).Credentials()
			if err := newOrchestrator(deps, cfg).ResolveAssistant(ctx, creds); err != nil {
				printer.Error("Assistant check failed: %s", search.Describe(err))
				return errSearchFailed
			}

			printer.Success("Assistant %s is reachable", creds.AssistantID)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up after this long")
	return cmd
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
