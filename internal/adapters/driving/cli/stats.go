package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pipeline and store statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline not configured")
	}

	stats, err := pipelineService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("collecting stats: %w", err)
	}

	cmd.Println("Documents:")
	for _, status := range []domain.DocumentStatus{
		domain.StatusPending,
		domain.StatusProcessing,
		domain.StatusCompleted,
		domain.StatusFailed,
	} {
		cmd.Printf("  %-11s %d\n", status+":", stats.DocumentsByStatus[status])
	}
	cmd.Printf("Chunks:      %d\n", stats.TotalChunks)
	cmd.Printf("Queue depth: %d\n", stats.QueueDepth)
	cmd.Printf("Workers:     %d\n", stats.Workers)
	return nil
}
