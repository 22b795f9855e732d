package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// CaseStatusAPIResponse represents the indexing status API response.
type CaseStatusAPIResponse struct {
	Documents     []DocumentAPIResponse `json:"documents"`
	ChunksReady   int                   `json:"chunks_ready"`
	ChunksPending int                   `json:"chunks_pending"`
	ChunksFailed  int                   `json:"chunks_failed"`
}

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <case_id>",
		Short: "Show indexing progress for a case",
		Long:  "Reports document and chunk counts, including how many chunks are still waiting for embeddings.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStatus(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runStatus(cmd *cobra.Command, caseID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/cases/%s/status", caseID))
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	var status CaseStatusAPIResponse
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Documents: %d\n", len(status.Documents))
	for _, doc := range status.Documents {
		line := fmt.Sprintf("  %s [%s] %s", doc.FileName, doc.SourceType, doc.Status)
		if doc.Error != "" {
			line += fmt.Sprintf(" (%s)", doc.Error)
		}
		fmt.Println(line)
	}
	fmt.Printf("Chunks ready: %d\n", status.ChunksReady)
	fmt.Printf("Chunks pending: %d\n", status.ChunksPending)
	fmt.Printf("Chunks failed: %d\n", status.ChunksFailed)

	if status.ChunksPending > 0 {
		fmt.Println("\nEmbedding is still in progress. Answers may be incomplete until it finishes.")
	}

	return nil
}
