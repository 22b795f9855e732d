package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// CaseMetadataRequest carries optional intake context for a case.
type CaseMetadataRequest struct {
	MatterOverview          string `json:"matter_overview,omitempty"`
	PeopleAndAliases        string `json:"people_and_aliases,omitempty"`
	NoteworthyOrganizations string `json:"noteworthy_organizations,omitempty"`
	NoteworthyTerms         string `json:"noteworthy_terms,omitempty"`
	AdditionalContext       string `json:"additional_context,omitempty"`
}

// CreateCaseAPIRequest represents the case creation API request.
type CreateCaseAPIRequest struct {
	Title    string               `json:"title"`
	Metadata *CaseMetadataRequest `json:"metadata,omitempty"`
}

// CaseAPIResponse represents a case from the API.
type CaseAPIResponse struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Status    string               `json:"status"`
	Metadata  *CaseMetadataRequest `json:"metadata,omitempty"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

// CaseListAPIResponse represents the case list API response.
type CaseListAPIResponse struct {
	Items   []CaseAPIResponse `json:"items"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"has_more"`
}

// CaseCmd creates the case command group.
func CaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Case management commands",
		Long:  "Commands for creating, listing, and inspecting legal cases.",
	}

	cmd.AddCommand(CaseCreateCmd())
	cmd.AddCommand(CaseListCmd())
	cmd.AddCommand(CaseShowCmd())
	cmd.AddCommand(CaseDeleteCmd())

	return cmd
}

// CaseCreateCmd creates the case create command.
func CaseCreateCmd() *cobra.Command {
	var (
		overview string
		people   string
		orgs     string
		terms    string
		context  string
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new case",
		Long: `Create a new case with an optional intake description.

Examples:
  # Minimal case
  legalassist case create "Doe v. Acme Corp"

  # With intake context that sharpens retrieval and analysis
  legalassist case create "Doe v. Acme Corp" \
    --overview "Wrongful termination after whistleblower report" \
    --people "Jane Doe (claimant), R. Smith (manager, 'Bobby')"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCaseCreate(cmd, args[0], CaseMetadataRequest{
				MatterOverview:          overview,
				PeopleAndAliases:        people,
				NoteworthyOrganizations: orgs,
				NoteworthyTerms:         terms,
				AdditionalContext:       context,
			}, outputJSON)
		},
	}

	cmd.Flags().StringVar(&overview, "overview", "", "Short description of the matter")
	cmd.Flags().StringVar(&people, "people", "", "People involved, with aliases")
	cmd.Flags().StringVar(&orgs, "orgs", "", "Organizations worth tracking")
	cmd.Flags().StringVar(&terms, "terms", "", "Noteworthy terms or jargon")
	cmd.Flags().StringVar(&context, "context", "", "Any additional context")

	return cmd
}

func runCaseCreate(cmd *cobra.Command, title string, meta CaseMetadataRequest, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := CreateCaseAPIRequest{Title: title}
	if meta != (CaseMetadataRequest{}) {
		req.Metadata = &meta
	}

	resp, err := api.Post("/cases", req)
	if err != nil {
		return fmt.Errorf("failed to create case: %w", err)
	}

	var created CaseAPIResponse
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(created, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Created case: %s\n", created.Title)
	fmt.Printf("ID: %s\n", created.ID)
	return nil
}

// CaseListCmd creates the case list command.
func CaseListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCaseList(cmd, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runCaseList(cmd *cobra.Command, limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/cases?limit=%d", limit)
	if cursor != "" {
		path += "&cursor=" + cursor
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("failed to list cases: %w", err)
	}

	var listResp CaseListAPIResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(listResp.Items) == 0 {
		fmt.Println("No cases found.")
		return nil
	}

	fmt.Printf("Found %d cases:\n\n", len(listResp.Items))
	for i, item := range listResp.Items {
		fmt.Printf("%d. %s [%s]\n", i+1, item.Title, item.Status)
		fmt.Printf("   ID: %s\n", item.ID)
		if item.CreatedAt != "" {
			fmt.Printf("   Created: %s\n", item.CreatedAt)
		}
		if i < len(listResp.Items)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	if listResp.HasMore && listResp.Cursor != "" {
		fmt.Printf("\nMore results available. Use --cursor %s\n", listResp.Cursor)
	}

	return nil
}

// CaseShowCmd creates the case show command.
func CaseShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show <case_id>",
		Short:   "Show a case and its documents",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCaseShow(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runCaseShow(cmd *cobra.Command, caseID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/cases/%s", caseID))
	if err != nil {
		return fmt.Errorf("failed to get case: %w", err)
	}

	var c CaseAPIResponse
	if err := json.Unmarshal(resp.Data, &c); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	docsResp, err := api.Get(fmt.Sprintf("/cases/%s/documents", caseID))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	var docs DocumentListAPIResponse
	if err := json.Unmarshal(docsResp.Data, &docs); err != nil {
		return fmt.Errorf("failed to parse documents: %w", err)
	}

	if outputJSON {
		combined := struct {
			Case      CaseAPIResponse       `json:"case"`
			Documents []DocumentAPIResponse `json:"documents"`
		}{c, docs.Items}
		output, _ := json.MarshalIndent(combined, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Title: %s\n", c.Title)
	fmt.Printf("Status: %s\n", c.Status)
	fmt.Printf("ID: %s\n", c.ID)
	fmt.Printf("Created: %s\n", c.CreatedAt)
	if c.Metadata != nil && c.Metadata.MatterOverview != "" {
		fmt.Printf("Overview: %s\n", c.Metadata.MatterOverview)
	}

	if len(docs.Items) == 0 {
		fmt.Println("\nNo documents uploaded.")
		return nil
	}

	fmt.Printf("\nDocuments (%d):\n", len(docs.Items))
	for _, d := range docs.Items {
		line := fmt.Sprintf("  %s [%s] %s", d.FileName, d.SourceType, d.Status)
		if d.ChunkCount > 0 {
			line += fmt.Sprintf(", %d chunks", d.ChunkCount)
		}
		fmt.Println(line)
		if d.Error != "" {
			fmt.Printf("    error: %s\n", d.Error)
		}
	}

	return nil
}

// CaseDeleteCmd creates the case delete command.
func CaseDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <case_id>",
		Short: "Delete a case and all its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCaseDelete(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runCaseDelete(cmd *cobra.Command, caseID string, force bool) error {
	if !force {
		fmt.Printf("Delete case %s and all its documents? [y/N]: ", caseID)
		var answer string
		fmt.Scanln(&answer)
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if _, err := api.Delete(fmt.Sprintf("/cases/%s", caseID)); err != nil {
		return fmt.Errorf("failed to delete case: %w", err)
	}

	fmt.Printf("Deleted case %s\n", caseID)
	return nil
}
