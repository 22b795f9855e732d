package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// ExchangeAPIRequest represents one prior question/answer pair.
type ExchangeAPIRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AskAPIRequest represents the question API request.
type AskAPIRequest struct {
	Question string               `json:"question"`
	History  []ExchangeAPIRequest `json:"history,omitempty"`
}

// AskAPIResponse represents the question API response.
type AskAPIResponse struct {
	Answer  string              `json:"answer"`
	Sources []SourceAPIResponse `json:"sources"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "ask <case_id> [question]",
		Short: "Ask a question about a case",
		Long: `Asks a question grounded in the case's indexed documents. The answer
cites the files it drew from.

With --interactive, opens a session where follow-up questions carry the
conversation history.

Examples:
  legalassist ask 3f2a... "When was the termination letter sent?"
  legalassist ask 3f2a... --interactive`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			if interactive {
				return runAskInteractive(cmd, args[0])
			}
			if len(args) < 2 {
				return fmt.Errorf("question is required (or use --interactive)")
			}
			return runAsk(cmd, args[0], args[1], nil, outputJSON)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Start an interactive question session")

	return cmd
}

func runAsk(cmd *cobra.Command, caseID, question string, history []ExchangeAPIRequest, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	answer, err := askOnce(api, caseID, question, history)
	if err != nil {
		return err
	}

	if outputJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printAnswer(answer)
	return nil
}

func askOnce(api *APIClient, caseID, question string, history []ExchangeAPIRequest) (*AskAPIResponse, error) {
	resp, err := api.Post(fmt.Sprintf("/cases/%s/questions", caseID), AskAPIRequest{
		Question: question,
		History:  history,
	})
	if err != nil {
		return nil, fmt.Errorf("question failed: %w", err)
	}

	var answer AskAPIResponse
	if err := json.Unmarshal(resp.Data, &answer); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &answer, nil
}

func printAnswer(answer *AskAPIResponse) {
	fmt.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range answer.Sources {
			fmt.Printf("  %s (%.2f)\n", s.File, s.Score)
		}
	}
}

func runAskInteractive(cmd *cobra.Command, caseID string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Interactive session. Empty line or Ctrl-D to exit.")
	reader := bufio.NewReader(os.Stdin)
	var history []ExchangeAPIRequest

	for {
		fmt.Print("\n? ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		question := strings.TrimSpace(line)
		if question == "" {
			return nil
		}

		answer, err := askOnce(api, caseID, question, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println()
		printAnswer(answer)
		history = append(history, ExchangeAPIRequest{Question: question, Answer: answer.Answer})
	}
}
