package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visionforge/forge-core/internal/application/handlers"
)

type registerFlags struct {
	format    string
	dryRun    bool
	overwrite bool
}

func newRegisterCmd() *cobra.Command {
	var flags registerFlags

	cmd := &cobra.Command{
		Use:   "register <data-or-file>",
		Short: "Register characters in the continuity registry",
		Long: "Adds characters to the shared continuity registry so later checks can flag\n" +
			"name collisions and cross-references. Accepts an inline JSON object for a\n" +
			"single character, or a JSON/CSV file for bulk registration.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Replace already-registered ids instead of skipping")

	return cmd
}

func runRegister(cmd *cobra.Command, arg string, flags registerFlags) error {
	if !contains(validFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validFormats)
	}

	ctx := cmd.Context()

	if isInlineJSON(arg) {
		if flags.dryRun {
			return fmt.Errorf("--dry-run requires a file")
		}
		attrs, err := readAttributesArg(arg)
		if err != nil {
			return err
		}
		return withDeps(func(d *Deps) error {
			id, err := d.Continuity.HandleRegister(ctx, attrs)
			if err != nil {
				return fmt.Errorf("registering character: %w", err)
			}
			fmt.Printf("Registered character %s\n", id)
			if !d.VectorsEnabled {
				fmt.Println("Note: no embedder configured, cross-reference search will not find this character.")
			}
			return nil
		})
	}

	return withDeps(func(d *Deps) error {
		opts := handlers.RegisterFileOptions{
			Format:    flags.format,
			DryRun:    flags.dryRun,
			Overwrite: flags.overwrite,
		}

		fmt.Printf("Registering characters from %s...\n", arg)

		result, err := d.Continuity.HandleRegisterFile(ctx, arg, opts)
		if err != nil {
			return fmt.Errorf("registering from file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e.Error())
			}
		}

		fmt.Println()
		if flags.dryRun {
			fmt.Printf("Dry run: %d characters would be registered", result.Imported)
		} else {
			fmt.Printf("Registered: %d characters", result.Imported)
		}
		if result.Skipped > 0 {
			fmt.Printf(", %d skipped (already registered)", result.Skipped)
		}
		if len(result.Errors) > 0 {
			fmt.Printf(", %d errors", len(result.Errors))
		}
		fmt.Println()

		return nil
	})
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
