package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a previously exported character",
		Long: "Restores a character export under a fresh id, replaying its version\n" +
			"ledger, and makes it the session's active character.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0])
		},
	}

	return cmd
}

func runImport(cmd *cobra.Command, filePath string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		result, err := d.Import.Handle(ctx, globalSession, filePath)
		if err != nil {
			return fmt.Errorf("importing character: %w", err)
		}

		name := result.Name
		if name == "" {
			name = "(unnamed)"
		}

		fmt.Printf("Imported %s as character %s (%d versions), now active in session %q\n",
			name, result.CharacterID, result.Versions, globalSession)
		return nil
	})
}
