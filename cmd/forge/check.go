package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

type checkFlags struct {
	characterID string
	content     string
	contentFile string
	asJSON      bool
}

func newCheckCmd() *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check continuity",
		Long: "Checks a character or proposed content for continuity violations: power\n" +
			"inconsistencies, character contradictions, timeline errors and style issues.\n" +
			"Without flags, the session's active character is checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.characterID, "id", "i", "", "Character id (defaults to the session's active character)")
	cmd.Flags().StringVarP(&flags.content, "content", "c", "", "Proposed free-text content to check instead of a stored character")
	cmd.Flags().StringVar(&flags.contentFile, "file", "", "Read the content to check from a file")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print the full report as JSON")

	return cmd
}

func runCheck(cmd *cobra.Command, flags checkFlags) error {
	ctx := cmd.Context()

	content := flags.content
	if flags.contentFile != "" {
		if content != "" {
			return fmt.Errorf("--content and --file are mutually exclusive")
		}
		data, err := os.ReadFile(flags.contentFile)
		if err != nil {
			return fmt.Errorf("reading content file: %w", err)
		}
		content = string(data)
	}

	return withDeps(func(d *Deps) error {
		var (
			report *entities.Report
			err    error
		)
		if content != "" {
			report, err = d.Continuity.HandleCheckContent(ctx, content, nil)
		} else {
			report, err = d.Continuity.HandleCheckCharacter(ctx, globalSession, flags.characterID)
		}
		if err != nil {
			return fmt.Errorf("checking continuity: %w", err)
		}

		if flags.asJSON {
			return printJSON(report)
		}

		formatReport(os.Stdout, report)
		return nil
	})
}

func formatReport(w io.Writer, r *entities.Report) {
	if r.CharacterID != "" {
		fmt.Fprintf(w, "Continuity report for character %s (checked %s):\n", r.CharacterID, r.CheckedAt.Format("2006-01-02 15:04"))
	} else {
		fmt.Fprintf(w, "Continuity report (checked %s):\n", r.CheckedAt.Format("2006-01-02 15:04"))
	}

	if r.TotalViolations == 0 {
		fmt.Fprintln(w, "No violations found.")
		return
	}

	fmt.Fprintf(w, "%d violations found (%s)\n\n", r.TotalViolations, severityCounts(r))

	for i, v := range r.Violations {
		fmt.Fprintf(w, "%d. [%s] %s: %s\n", i+1, strings.ToUpper(string(v.Severity)), v.Type, v.Title)
		if v.Description != "" {
			fmt.Fprintf(w, "   %s\n", v.Description)
		}
		if len(v.AffectedElements) > 0 {
			fmt.Fprintf(w, "   Affected: %s\n", strings.Join(v.AffectedElements, ", "))
		}
		for _, fix := range v.SuggestedFixes {
			fmt.Fprintf(w, "   Fix: %s\n", fix)
		}
		for _, ref := range v.CrossReferences {
			fmt.Fprintf(w, "   See also: %s\n", ref)
		}
		if v.AISuggestion != "" {
			fmt.Fprintf(w, "   AI: %s\n", v.AISuggestion)
		}
		fmt.Fprintln(w)
	}
}

// severityCounts renders the per-severity breakdown, worst first, zeros
// omitted.
func severityCounts(r *entities.Report) string {
	var parts []string
	if r.CriticalCount > 0 {
		parts = append(parts, fmt.Sprintf("%d critical", r.CriticalCount))
	}
	if r.HighCount > 0 {
		parts = append(parts, fmt.Sprintf("%d high", r.HighCount))
	}
	if r.MediumCount > 0 {
		parts = append(parts, fmt.Sprintf("%d medium", r.MediumCount))
	}
	if r.LowCount > 0 {
		parts = append(parts, fmt.Sprintf("%d low", r.LowCount))
	}
	return strings.Join(parts, ", ")
}
