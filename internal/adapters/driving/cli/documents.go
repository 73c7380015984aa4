package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// listStatus is the --status flag value on documents list.
var listStatus string

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage ingested documents",
	Long:  `List, inspect or delete ingested documents.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsGet,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

var documentsChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "List a document's chunks",
	Long:  `Lists a document's chunks in order, with token counts, sentence ranges and embedding dimensions.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsChunks,
}

func init() {
	documentsListCmd.Flags().StringVar(&listStatus, "status", "",
		"Only show documents with this status (pending, processing, completed, failed)")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsGetCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	documentsCmd.AddCommand(documentsChunksCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline not configured")
	}

	status := domain.DocumentStatus(listStatus)
	if status != "" && !status.IsValid() {
		return fmt.Errorf("unknown status %q", listStatus)
	}

	docs, err := pipelineService.ListDocuments(cmd.Context(), status)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	for i := range docs {
		d := &docs[i]
		cmd.Printf("  %s\n", d.ID)
		cmd.Printf("    Name: %s\n", d.Name)
		cmd.Printf("    Status: %s", d.Status)
		if d.Error != "" {
			cmd.Printf(" (%s)", d.Error)
		}
		cmd.Println()
		cmd.Printf("    Chunks: %d  Pages: %d  Size: %d bytes\n", d.ChunkCount, d.PageCount, d.Size)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentsGet(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline not configured")
	}

	doc, err := pipelineService.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting document: %w", err)
	}

	cmd.Printf("ID:          %s\n", doc.ID)
	cmd.Printf("Name:        %s\n", doc.Name)
	cmd.Printf("Fingerprint: %s\n", doc.Fingerprint)
	cmd.Printf("Status:      %s\n", doc.Status)
	if doc.Error != "" {
		cmd.Printf("Error:       %s\n", doc.Error)
	}
	cmd.Printf("Size:        %d bytes\n", doc.Size)
	cmd.Printf("Pages:       %d\n", doc.PageCount)
	cmd.Printf("Chunks:      %d\n", doc.ChunkCount)
	cmd.Printf("Created:     %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	if doc.CompletedAt != nil {
		cmd.Printf("Completed:   %s\n", doc.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runDocumentsChunks(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline not configured")
	}

	chunks, err := pipelineService.GetChunks(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting chunks: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Println("No chunks stored.")
		return nil
	}

	for _, c := range chunks {
		embedded := "not embedded"
		if len(c.Embedding) > 0 {
			embedded = fmt.Sprintf("%d dims", len(c.Embedding))
		}
		cmd.Printf("  [%d] %d tokens, sentences %d-%d, %s\n",
			c.Index, c.TokenCount, c.StartSentence, c.EndSentence, embedded)
		cmd.Printf("      %s\n", c.Text)
	}

	cmd.Printf("Total: %d chunks\n", len(chunks))
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline not configured")
	}

	if err := pipelineService.DeleteDocument(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	cmd.Printf("Deleted %s\n", args[0])
	return nil
}
