// Package commands implements the demo CLI's subcommands. Each invocation
// of the binary builds its own in-process Orchestrator backed by the
// deterministic fake capabilities — there is no server to dial and no
// durable job storage, so jobs only live for the lifetime of one command
// (Non-goal: durable job storage across restarts).
package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"adgen/internal/infra"
	"adgen/internal/orchestrator"
	"adgen/internal/orchestrator/adapters"
	"adgen/internal/orchestrator/validate"
	"adgen/internal/storage"
)

const flagAppEnv = "env"

var (
	appEnv string
	orch   *orchestrator.Orchestrator
	logger zerolog.Logger
)

func init() {
	RootCmd.PersistentFlags().StringVar(&appEnv, flagAppEnv, "production", "logging environment (development enables debug logs)")

	RootCmd.AddCommand(submitCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(waitCmd)
	RootCmd.AddCommand(bundleCmd)
}

// RootCmd is the base command for the adgen demo CLI.
var RootCmd = &cobra.Command{
	Use:   "adgen",
	Short: "adgen CLI - drive the generation job orchestrator from the command line",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger = infra.NewLogger(appEnv)
		cfg := orchestrator.LoadConfig()
		fileStore, err := storage.NewFileStore(cfg.BundleDir)
		if err != nil {
			return err
		}
		orch = orchestrator.New(
			cfg,
			adapters.NewFakeAnalyzer(adapters.FailurePlan{}),
			adapters.NewFakeImageSynthesizer(adapters.FailurePlan{}),
			adapters.NewFakeTextSynthesizer(adapters.FailurePlan{}),
			validate.Credentials{Analyzer: true, ImageSynthesizer: true, TextSynthesizer: true},
			logger,
			orchestrator.WithDiskStore(fileStore),
		)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if orch != nil {
			orch.Shutdown()
		}
	}()
	return RootCmd.Execute()
}

