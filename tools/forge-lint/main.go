// forge-lint is a custom static analyzer for forge-core call patterns.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/visionforge/forge-core/tools/forge-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
