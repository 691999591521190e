// Package loopcall flags per-item embedding and vector index calls made
// inside loops.
package loopcall

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects per-item network calls inside loops that should be
// batched.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "detects per-item embed/upsert/search calls inside loops that should be batched",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// batchHint maps per-item call names to the remedy named in the diagnostic.
// Embed and Upsert have batch variants on the same interface; a looped
// Search usually means the query itself should be restructured.
var batchHint = map[string]string{
	"Embed":  "use EmbedBatch",
	"Upsert": "use UpsertBatch",
	"Search": "reshape the query into one search",
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	// Visit each call exactly once and check the enclosing stack, so a call
	// under nested loops reports a single diagnostic.
	inspect.WithStack([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return false
		}
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		hint, ok := batchHint[sel.Sel.Name]
		if !ok {
			return true
		}
		if iterates(stack) {
			pass.Reportf(call.Pos(), "potential N+1: %s called inside loop - %s", sel.Sel.Name, hint)
		}
		return true
	})

	return nil, nil
}

// iterates reports whether the innermost node sits in a loop position that
// executes per iteration. A range expression evaluates once and a for init
// runs once; loop bodies, conditions, and post statements repeat.
func iterates(stack []ast.Node) bool {
	for i := 0; i < len(stack)-1; i++ {
		switch loop := stack[i].(type) {
		case *ast.RangeStmt:
			if stack[i+1] == loop.Body {
				return true
			}
		case *ast.ForStmt:
			next := stack[i+1]
			if next == loop.Body || next == loop.Cond || next == loop.Post {
				return true
			}
		}
	}
	return false
}
