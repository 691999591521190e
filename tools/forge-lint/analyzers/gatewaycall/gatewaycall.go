// Package gatewaycall detects AI completion calls that bypass the
// enhancement gateway.
package gatewaycall

import (
	"go/ast"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects direct enhancer Complete calls. Application code routes
// completions through services.EnhancementGateway so every call carries a
// timeout and reports expiry as a TimedOut result instead of an error.
var Analyzer = &analysis.Analyzer{
	Name:     "gatewaycall",
	Doc:      "detects enhancer Complete calls made outside the enhancement gateway",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// The services package owns the gateway, and provider packages exercise
// their own clients.
var (
	allowedSuffix   = "/internal/domain/services"
	allowedFragment = "/internal/infrastructure/enhancer/"
)

func run(pass *analysis.Pass) (interface{}, error) {
	path := pass.Pkg.Path()
	if strings.HasSuffix(path, allowedSuffix) || strings.Contains(path, allowedFragment) {
		return nil, nil
	}

	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.CallExpr)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)

		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}

		if sel.Sel.Name != "Complete" {
			return
		}

		pass.Reportf(call.Pos(),
			"Complete called outside the enhancement gateway - route completions through services.EnhancementGateway")
	})

	return nil, nil
}
