package main

import (
	"fmt"
	"os"

	"github.com/Aashrithhh/Legal-Assistant/internal/cli"
	"github.com/Aashrithhh/Legal-Assistant/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "legalassist",
		Short: "Legal Assistant CLI - Case document analysis",
		Long: `Legal Assistant CLI uploads case documents, runs issue analysis, and
answers questions grounded in the indexed evidence.

Environment variables:
  LEGALASSIST_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.ConfigCmd())
	rootCmd.AddCommand(client.CaseCmd())
	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.AnalyzeCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.StatusCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
