// Package cli provides the command-line interface for docqa.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by the composition root before Execute runs. Commands
// that find their service nil report a configuration error instead of
// panicking.
var (
	pipelineService driving.IngestionPipeline
	answerService   driving.AnswerService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions over your own documents",
	Long: `docqa ingests PDF and text documents into a local store and answers
questions over them, comparing retrieval-grounded answers against pure
model knowledge.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// SetServices wires the core services into the CLI.
func SetServices(pipeline driving.IngestionPipeline, answers driving.AnswerService) {
	pipelineService = pipeline
	answerService = answers
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
