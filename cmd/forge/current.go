package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

func newCurrentCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show the active character",
		Long:  "Shows the session's active character with all attributes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCurrent(cmd, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full character as JSON")

	return cmd
}

func runCurrent(cmd *cobra.Command, asJSON bool) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		character, err := d.Characters.HandleCurrent(ctx, globalSession)
		if err != nil {
			return fmt.Errorf("loading active character: %w", err)
		}

		if character == nil {
			fmt.Printf("No active character in session %q.\n", globalSession)
			return nil
		}

		if asJSON {
			return printJSON(character)
		}
		return displayCharacter(character)
	})
}

func displayCharacter(c *entities.Character) error {
	fmt.Printf("ID:      %s\n", c.ID)
	fmt.Printf("Version: %d\n", c.CurrentVersion)
	fmt.Printf("Updated: %s\n", c.UpdatedAt.Format("2006-01-02 15:04"))
	fmt.Println()

	data, err := json.MarshalIndent(c.Attributes, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting attributes: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
