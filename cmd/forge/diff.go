package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

func newDiffCmd() *cobra.Command {
	var characterID string

	cmd := &cobra.Command{
		Use:   "diff <from> <to>",
		Short: "Compare two character versions",
		Long:  "Shows the attribute changes between two recorded versions of a character.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], args[1], characterID)
		},
	}

	cmd.Flags().StringVarP(&characterID, "id", "i", "", "Character id (defaults to the session's active character)")

	return cmd
}

func runDiff(cmd *cobra.Command, fromArg, toArg, characterID string) error {
	ctx := cmd.Context()

	from, err := strconv.Atoi(fromArg)
	if err != nil {
		return fmt.Errorf("from must be a version number, got %q", fromArg)
	}
	to, err := strconv.Atoi(toArg)
	if err != nil {
		return fmt.Errorf("to must be a version number, got %q", toArg)
	}

	return withDeps(func(d *Deps) error {
		diff, err := d.Characters.HandleDiff(ctx, globalSession, characterID, from, to)
		if err != nil {
			return fmt.Errorf("comparing versions: %w", err)
		}

		displayDiff(diff)
		return nil
	})
}

func displayDiff(diff *entities.VersionDiff) {
	fmt.Printf("Changes from v%d to v%d of character %s:\n\n", diff.FromVersion, diff.ToVersion, diff.CharacterID)

	if len(diff.Added) == 0 && len(diff.Removed) == 0 && len(diff.Changed) == 0 {
		fmt.Println("No changes.")
		return
	}

	if len(diff.Added) > 0 {
		fmt.Println("Added:")
		for _, key := range sortedKeys(diff.Added) {
			fmt.Printf("  %s: %s\n", key, compactJSON(diff.Added[key]))
		}
	}

	if len(diff.Changed) > 0 {
		fmt.Println("Changed:")
		for _, key := range sortedKeys(diff.Changed) {
			change, ok := diff.Changed[key].(map[string]any)
			if !ok {
				fmt.Printf("  %s: %s\n", key, compactJSON(diff.Changed[key]))
				continue
			}
			fmt.Printf("  %s: %s -> %s\n", key, compactJSON(change["from"]), compactJSON(change["to"]))
		}
	}

	if len(diff.Removed) > 0 {
		fmt.Println("Removed:")
		for _, key := range diff.Removed {
			fmt.Printf("  %s\n", key)
		}
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
