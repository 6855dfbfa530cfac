package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "catalog-api",
	Short:        "Product and SKU catalog API",
	SilenceUsage: true,
	// Running the binary without a subcommand starts the server
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&seedOnStart, "seed", false, "seed the admin user and default collection before serving")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd)

	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
