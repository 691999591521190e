package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visionforge/forge-core/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Long: "Exposes character persistence and continuity tools over the Model\n" +
			"Context Protocol so LLM-based writing tools can call them directly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd)
		},
	}
}

func runMCP(cmd *cobra.Command) error {
	return withDeps(func(d *Deps) error {
		srv := mcpserver.New(d.Characters, d.Continuity)
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	})
}
