package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// IssueAPIResponse represents one identified issue from the API.
type IssueAPIResponse struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	RiskLevel       string `json:"risk_level"`
	Category        string `json:"category"`
	PartiesInvolved string `json:"parties_involved,omitempty"`
	Citations       string `json:"citations,omitempty"`
}

// SourceAPIResponse represents one retrieval source from the API.
type SourceAPIResponse struct {
	File  string  `json:"file"`
	Score float64 `json:"score"`
}

// AnalysisAPIResponse represents a case analysis from the API.
type AnalysisAPIResponse struct {
	ID        string              `json:"id"`
	CaseID    string              `json:"case_id"`
	Summary   string              `json:"summary"`
	Issues    []IssueAPIResponse  `json:"issues"`
	Sources   []SourceAPIResponse `json:"sources"`
	Model     string              `json:"model,omitempty"`
	CreatedAt string              `json:"created_at"`
}

// AnalyzeCmd creates the analyze command.
func AnalyzeCmd() *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "analyze <case_id>",
		Short: "Run an issue analysis over a case",
		Long: `Runs a full analysis across the case's indexed documents and reports
identified legal issues with risk levels, categories, and citations.

Use --latest to print the most recent stored analysis without running a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAnalyze(cmd, args[0], latest, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "Show the most recent stored analysis instead of running a new one")

	return cmd
}

func runAnalyze(cmd *cobra.Command, caseID string, latest, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var resp *APIResponse
	if latest {
		resp, err = api.Get(fmt.Sprintf("/cases/%s/analysis", caseID))
	} else {
		resp, err = api.Post(fmt.Sprintf("/cases/%s/analysis", caseID), nil)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	var analysis AnalysisAPIResponse
	if err := json.Unmarshal(resp.Data, &analysis); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(analysis, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Summary: %s\n", analysis.Summary)

	if len(analysis.Issues) == 0 {
		fmt.Println("\nNo issues identified.")
	} else {
		fmt.Printf("\nIssues (%d):\n", len(analysis.Issues))
		for i, issue := range analysis.Issues {
			fmt.Printf("\n%d. %s [%s / %s]\n", i+1, issue.Title, issue.RiskLevel, issue.Category)
			fmt.Printf("   %s\n", issue.Description)
			if issue.PartiesInvolved != "" {
				fmt.Printf("   Parties: %s\n", issue.PartiesInvolved)
			}
			if issue.Citations != "" {
				fmt.Printf("   Sources: %s\n", issue.Citations)
			}
		}
	}

	if len(analysis.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range analysis.Sources {
			fmt.Printf("  %s (%.2f)\n", s.File, s.Score)
		}
	}

	return nil
}
