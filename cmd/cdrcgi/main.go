package main

import (
	"os"

	"github.com/spf13/cobra"

	"cdrcgi/internal/interfaces/cli/migrate"
	"cdrcgi/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cdrcgi",
		Short: "CDR administrative web service",
		Long:  `HTTP service fronting the PDQ/CDR document-management database: session handling, advanced search, document rendering, and the JSON API.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
