package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

func newListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List characters",
		Long:  "Lists non-archived characters, most recently updated first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of characters to display")

	return cmd
}

func runList(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		characters, err := d.Characters.HandleList(ctx, limit)
		if err != nil {
			return fmt.Errorf("listing characters: %w", err)
		}

		if len(characters) == 0 {
			fmt.Println("No characters found.")
			return nil
		}

		fmt.Printf("Showing %d characters:\n\n", len(characters))

		for _, c := range characters {
			fmt.Printf("%s  v%-4d %-24s updated %s\n",
				c.ID,
				c.CurrentVersion,
				characterName(c),
				c.UpdatedAt.Format("2006-01-02 15:04"))
		}

		return nil
	})
}

func characterName(c *entities.Character) string {
	if name := c.Attributes.String(entities.AttrName); name != "" {
		return name
	}
	return "(unnamed)"
}
