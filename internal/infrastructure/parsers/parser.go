// Package parsers provides parsers for importing characters from various
// formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawCharacter is one character parsed from an external source before
// validation. Fields is the open attribute mapping; an "id" key, when
// present, becomes the registry id.
type RawCharacter struct {
	Fields     map[string]any
	SourceFile string
	LineNum    int
}

// Parser defines the interface for parsing characters from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawCharacter, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
