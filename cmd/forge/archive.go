package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newArchiveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "archive <character-id>",
		Short: "Archive a character",
		Long: "Archives a character, hiding it from listings and detaching it from every\n" +
			"session. The version ledger is kept and the character stays readable by id.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runArchive(cmd *cobra.Command, characterID string, force bool) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		if !force && !confirmAction(fmt.Sprintf("Archive character %s?", characterID)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := d.Characters.HandleArchive(ctx, characterID); err != nil {
			return fmt.Errorf("archiving character: %w", err)
		}

		fmt.Printf("Archived character %s\n", characterID)
		return nil
	})
}

func confirmAction(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [y/N]: ", prompt)
	response, _ := reader.ReadString('\n') // Error ignored: EOF/error treated as "no"
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
