package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// DocumentAPIResponse represents a document from the API.
type DocumentAPIResponse struct {
	ID         string `json:"id"`
	CaseID     string `json:"case_id"`
	FileName   string `json:"file_name"`
	SourceType string `json:"source_type"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// DocumentListAPIResponse represents the document list API response.
type DocumentListAPIResponse struct {
	Items []DocumentAPIResponse `json:"items"`
}

// IngestedFileAPIResponse represents one successfully ingested file.
type IngestedFileAPIResponse struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	SourceType string `json:"source_type"`
	ChunkCount int    `json:"chunk_count"`
}

// FailedFileAPIResponse represents one file that failed ingestion.
type FailedFileAPIResponse struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

// UploadAPIResponse represents the batch upload API response.
type UploadAPIResponse struct {
	Ingested []IngestedFileAPIResponse `json:"ingested"`
	Failed   []FailedFileAPIResponse   `json:"failed"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <case_id> <file>...",
		Short: "Upload documents to a case",
		Long: `Upload one or more files to a case for extraction and indexing.

Supported formats include PDF, Word, PowerPoint, email, HTML, plain text,
and audio recordings. Files that fail extraction are reported individually
without failing the batch.

Examples:
  legalassist upload 3f2a... contract.pdf deposition.mp3
  legalassist upload 3f2a... evidence/*.eml`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpload(cmd, args[0], args[1:], outputJSON)
		},
	}

	return cmd
}

func runUpload(cmd *cobra.Command, caseID string, filePaths []string, outputJSON bool) error {
	for _, fp := range filePaths {
		if _, err := os.Stat(fp); err != nil {
			return fmt.Errorf("cannot read %s: %w", fp, err)
		}
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.PostFiles(fmt.Sprintf("/cases/%s/documents", caseID), filePaths)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	var uploadResp UploadAPIResponse
	if err := json.Unmarshal(resp.Data, &uploadResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(uploadResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, f := range uploadResp.Ingested {
		fmt.Printf("ok   %s [%s] %d chunks (id %s)\n", f.FileName, f.SourceType, f.ChunkCount, f.DocumentID)
	}
	for _, f := range uploadResp.Failed {
		fmt.Printf("FAIL %s: %s\n", f.FileName, f.Error)
	}
	fmt.Printf("\n%d ingested, %d failed\n", len(uploadResp.Ingested), len(uploadResp.Failed))

	if len(uploadResp.Failed) > 0 && len(uploadResp.Ingested) == 0 {
		return fmt.Errorf("no files were ingested")
	}
	return nil
}
