package gatewaycall_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/visionforge/forge-core/tools/forge-lint/analyzers/gatewaycall"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, gatewaycall.Analyzer,
		"a", "forge/internal/domain/services")
}
