package main

import (
	"fmt"
	"os"

	"github.com/Aashrithhh/Legal-Assistant/internal/cli"
	"github.com/Aashrithhh/Legal-Assistant/internal/cli/daemon"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "legalassistd",
		Short: "Legal Assistant daemon",
		Long:  "Legal Assistant daemon for running the document ingestion and analysis API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(daemon.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
