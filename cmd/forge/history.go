package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var characterID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a character's version ledger",
		Long:  "Lists every recorded version of a character, oldest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, characterID)
		},
	}

	cmd.Flags().StringVarP(&characterID, "id", "i", "", "Character id (defaults to the session's active character)")

	return cmd
}

func runHistory(cmd *cobra.Command, characterID string) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		history, err := d.Characters.HandleHistory(ctx, globalSession, characterID)
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}

		fmt.Printf("Found %d versions of character %s:\n\n", len(history.Entries), history.CharacterID)

		for _, entry := range history.Entries {
			fmt.Printf("v%-4d %s  %-20s %s\n",
				entry.Version,
				entry.CreatedAt.Format("2006-01-02 15:04"),
				entry.ToolName,
				entry.Description)
			if entry.PromptContext != "" {
				fmt.Printf("      Context: %s\n", entry.PromptContext)
			}
		}

		return nil
	})
}
