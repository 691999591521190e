package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type updateFlags struct {
	tool        string
	description string
}

func newUpdateCmd() *cobra.Command {
	var flags updateFlags

	cmd := &cobra.Command{
		Use:   "update <patch>",
		Short: "Update the active character",
		Long: "Merges a partial attribute patch into the session's active character. Accepts an\n" +
			"inline JSON object, a path to a JSON file, or - for stdin. Keys present in the\n" +
			"patch replace the stored values; everything else is kept.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.tool, "tool", "t", "", "Tool recording the update")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "Description of the change")

	return cmd
}

func runUpdate(cmd *cobra.Command, arg string, flags updateFlags) error {
	ctx := cmd.Context()

	patch, err := readAttributesArg(arg)
	if err != nil {
		return err
	}

	return withDeps(func(d *Deps) error {
		result, err := d.Characters.HandleUpdate(ctx, globalSession, patch, flags.tool, flags.description)
		if err != nil {
			return fmt.Errorf("updating character: %w", err)
		}

		fmt.Printf("Updated character %s to version %d\n", result.CharacterID, result.Version)
		return nil
	})
}
