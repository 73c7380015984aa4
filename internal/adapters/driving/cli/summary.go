package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarise the ingested documents",
	Long:  `Generates a summary of what the ingested corpus covers, using a wider retrieval window than regular questions.`,
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	if answerService == nil {
		return errors.New("answer service not configured (is the OpenAI API key set?)")
	}

	answer, err := answerService.Summarise(cmd.Context())
	if err != nil {
		return fmt.Errorf("summarising: %w", err)
	}

	printAnswer(cmd, answer)
	return nil
}
