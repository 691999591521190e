package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRollbackCmd() *cobra.Command {
	var characterID string

	cmd := &cobra.Command{
		Use:   "rollback <version>",
		Short: "Restore an earlier character version",
		Long: "Restores an earlier version of a character as a new head version. Nothing is\n" +
			"deleted; the rollback itself is recorded in the ledger.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollback(cmd, args[0], characterID)
		},
	}

	cmd.Flags().StringVarP(&characterID, "id", "i", "", "Character id (defaults to the session's active character)")

	return cmd
}

func runRollback(cmd *cobra.Command, versionArg, characterID string) error {
	ctx := cmd.Context()

	version, err := strconv.Atoi(versionArg)
	if err != nil {
		return fmt.Errorf("version must be a number, got %q", versionArg)
	}

	return withDeps(func(d *Deps) error {
		result, err := d.Characters.HandleRollback(ctx, globalSession, characterID, version)
		if err != nil {
			return fmt.Errorf("rolling back: %w", err)
		}

		fmt.Printf("Rolled back character %s to version %d (recorded as version %d)\n",
			result.CharacterID, result.RestoredFrom, result.Version)
		return nil
	})
}
