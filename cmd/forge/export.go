package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type exportForgeFlags struct {
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportForgeFlags

	cmd := &cobra.Command{
		Use:   "export [character-id]",
		Short: "Export a character and its version history",
		Long: "Writes a character and its full version ledger as JSON, in the format\n" +
			"`forge import` reads back. Defaults to the session's active character.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var characterID string
			if len(args) > 0 {
				characterID = args[0]
			}
			return runExport(cmd, characterID, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, characterID string, flags exportForgeFlags) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) (err error) {
		if characterID == "" {
			current, err := d.Characters.HandleCurrent(ctx, globalSession)
			if err != nil {
				return fmt.Errorf("resolving active character: %w", err)
			}
			if current == nil {
				return fmt.Errorf("no active character in session %q; pass a character id", globalSession)
			}
			characterID = current.ID
		}

		export, err := d.Export.Handle(ctx, characterID)
		if err != nil {
			return fmt.Errorf("exporting character: %w", err)
		}

		var w io.Writer
		if flags.output != "" {
			f, err := os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
			if err != nil {
				return fmt.Errorf("creating file: %w", err)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = fmt.Errorf("closing file: %w", cerr)
				}
			}()
			w = f
		} else {
			w = os.Stdout
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(export); err != nil {
			return fmt.Errorf("encoding export: %w", err)
		}

		if flags.output != "" {
			fmt.Printf("Exported character %s (%d versions) to %s\n",
				export.Character.ID, len(export.Versions), flags.output)
		}

		return nil
	})
}
