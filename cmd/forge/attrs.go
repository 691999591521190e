package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

// readAttributesArg reads an attribute mapping from an inline JSON object,
// "-" for stdin, or a path to a JSON file.
func readAttributesArg(arg string) (entities.Attributes, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case arg == "-":
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
	case isInlineJSON(arg):
		data = []byte(arg)
	default:
		data, err = os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
	}

	var attrs entities.Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parsing character data: %w", err)
	}
	return attrs, nil
}

// isInlineJSON reports whether the argument is a JSON object literal rather
// than a file path.
func isInlineJSON(arg string) bool {
	return strings.HasPrefix(strings.TrimSpace(arg), "{")
}
