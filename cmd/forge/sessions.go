package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions and their active characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(cmd)
		},
	}

	cmd.AddCommand(newSessionsClearCmd())

	return cmd
}

func runSessions(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		sessions, err := d.Sessions.List(ctx)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		for _, s := range sessions {
			active := s.ActiveCharacterID
			if active == "" {
				active = "(none)"
			}
			fmt.Printf("%-16s  %-40s %s\n", s.ID, active, s.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	})
}

func newSessionsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [session-id]",
		Short: "Clear a session's active character",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := globalSession
			if len(args) > 0 {
				sessionID = args[0]
			}

			ctx := cmd.Context()

			return withDeps(func(d *Deps) error {
				if err := d.Sessions.Clear(ctx, sessionID); err != nil {
					return fmt.Errorf("clearing session: %w", err)
				}
				fmt.Printf("Cleared session %q\n", sessionID)
				return nil
			})
		},
	}
}
