// Package main provides the entry point for the forge CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

var (
	version       = "0.1.0-dev"
	globalSession string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "forge",
		Short:   "Character persistence and continuity checking for creative writing tools",
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&globalSession, "session", "s", DefaultSession, "Session to operate in")

	rootCmd.AddCommand(
		newInitCmd(),
		newSaveCmd(),
		newUpdateCmd(),
		newCurrentCmd(),
		newHistoryCmd(),
		newDiffCmd(),
		newRollbackCmd(),
		newArchiveCmd(),
		newListCmd(),
		newCheckCmd(),
		newRegisterCmd(),
		newExportCmd(),
		newImportCmd(),
		newSessionsCmd(),
		newServeCmd(),
		newMCPCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
