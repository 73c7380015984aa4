package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]...",
	Short: "Ingest documents into the store",
	Long: `Queues one or more PDF, text or markdown files for ingestion and
reports progress until every document reaches a terminal state.
Re-ingesting identical content is a no-op.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("ingestion pipeline not configured (is the OpenAI API key set?)")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	type submission struct {
		name   string
		docID  string
		events <-chan domain.ProgressEvent
	}

	var subs []submission
	for _, path := range args {
		name := filepath.Base(path)
		docID, events, err := pipelineService.QueueDocument(ctx, path, name)
		if err != nil {
			return fmt.Errorf("queueing %s: %w", name, err)
		}
		cmd.Printf("queued %s (%s)\n", name, docID)
		subs = append(subs, submission{name: name, docID: docID, events: events})
	}

	failures := 0
	for _, sub := range subs {
		var last domain.ProgressEvent
		for ev := range sub.events {
			last = ev
			if verbose {
				cmd.Printf("  %s: %3d%% %s\n", sub.name, ev.Percent, ev.Message)
			}
		}

		switch last.Status {
		case domain.StatusCompleted:
			cmd.Printf("completed %s: %s\n", sub.name, last.Message)
		case domain.StatusFailed:
			failures++
			cmd.Printf("FAILED %s: %s\n", sub.name, last.Message)
		default:
			// Channel closed without a terminal event (shutdown).
			failures++
			cmd.Printf("interrupted %s\n", sub.name)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, len(subs))
	}
	return nil
}
