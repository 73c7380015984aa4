package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// askMode is the --mode flag value.
var askMode string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the ingested documents",
	Long: `Answers a question using one of three strategies:

  grounded    answer only from retrieved document context (default)
  generative  answer from model knowledge alone
  hybrid      ground on documents, supplement with model knowledge

All strategies report the same metrics so they can be compared.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", string(domain.ModeGrounded),
		"Answer mode: grounded, generative or hybrid")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured (is the OpenAI API key set?)")
	}

	query := strings.Join(args, " ")
	mode := domain.AnswerMode(askMode)

	answer, err := answerService.Answer(cmd.Context(), query, mode)
	if err != nil {
		return fmt.Errorf("answering: %w", err)
	}

	printAnswer(cmd, answer)
	return nil
}

// printAnswer renders an answer with its citations and metrics.
func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println("\nSources:")
		for i, c := range answer.Citations {
			marker := ""
			if c.Truncated {
				marker = " (truncated)"
			}
			cmd.Printf("  [%d] document %s, chunk %d (similarity %.3f)%s\n",
				i+1, c.Chunk.DocumentID, c.Chunk.Index, c.Similarity, marker)
		}
	}

	cmd.Printf("\nmode=%s model=%s chunks=%d context_tokens=%d tokens=%d/%d/%d duration=%s\n",
		answer.Mode, answer.Model, answer.ChunksUsed, answer.ContextTokens,
		answer.PromptTokens, answer.CompletionTokens, answer.TotalTokens,
		answer.Duration.Round(time.Millisecond))
}
