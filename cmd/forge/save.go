package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type saveFlags struct {
	tool          string
	description   string
	promptContext string
}

func newSaveCmd() *cobra.Command {
	var flags saveFlags

	cmd := &cobra.Command{
		Use:   "save <data>",
		Short: "Save a character profile",
		Long: "Saves a full character profile as a new version. Accepts an inline JSON object,\n" +
			"a path to a JSON file, or - for stdin. Creates a new character when the session\n" +
			"has no active one.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.tool, "tool", "t", "", "Tool recording the save (e.g. character_generator)")
	cmd.Flags().StringVarP(&flags.description, "description", "d", "", "Description of the change")
	cmd.Flags().StringVar(&flags.promptContext, "context", "", "Prompt or context that produced this version")

	return cmd
}

func runSave(cmd *cobra.Command, arg string, flags saveFlags) error {
	ctx := cmd.Context()

	attrs, err := readAttributesArg(arg)
	if err != nil {
		return err
	}

	return withDeps(func(d *Deps) error {
		result, err := d.Characters.HandleSave(ctx, globalSession, attrs, flags.tool, flags.description, flags.promptContext)
		if err != nil {
			return fmt.Errorf("saving character: %w", err)
		}

		if result.Created {
			fmt.Printf("Created character %s (version %d)\n", result.CharacterID, result.Version)
		} else {
			fmt.Printf("Saved version %d of character %s\n", result.Version, result.CharacterID)
		}
		return nil
	})
}
