// Package analyzers provides all custom static analyzers for forge-core.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/visionforge/forge-core/tools/forge-lint/analyzers/gatewaycall"
	"github.com/visionforge/forge-core/tools/forge-lint/analyzers/loopcall"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		loopcall.Analyzer,
		gatewaycall.Analyzer,
	}
}
