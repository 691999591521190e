package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visionforge/forge-core/internal/application/handlers"
	"github.com/visionforge/forge-core/internal/domain/ports"
	"github.com/visionforge/forge-core/internal/infrastructure/config"
	"github.com/visionforge/forge-core/internal/infrastructure/vectordb/qdrant"
)

func newInitCmd() *cobra.Command {
	var skipQdrant bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new forge workspace",
		Long:  "Creates a .forge directory with default configuration and sets up the Qdrant collection for cross-reference search.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, skipQdrant)
		},
	}

	cmd.Flags().BoolVar(&skipQdrant, "skip-qdrant", false, "Skip Qdrant collection setup (cross-reference search disabled)")

	return cmd
}

func runInit(cmd *cobra.Command, skipQdrant bool) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	var collections ports.CollectionManager
	if !skipQdrant {
		// The config file does not exist yet, so the collection manager is
		// built from the same defaults init is about to write.
		qcfg := config.Default().Qdrant
		if key := os.Getenv("QDRANT_API_KEY"); key != "" {
			qcfg.APIKey = key
		}
		repo, err := qdrant.NewRepository(qcfg)
		if err != nil {
			return fmt.Errorf("connecting to qdrant: %w", err)
		}
		defer repo.Close()
		collections = repo
	}

	result, err := handlers.NewInitHandler(collections).Handle(ctx, cwd)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", result.ConfigPath)
	if skipQdrant {
		fmt.Println("Skipped Qdrant collection setup.")
	} else {
		fmt.Printf("Created Qdrant collection: %s\n", result.CollectionName)
	}
	fmt.Println("Forge initialized successfully!")

	return nil
}
