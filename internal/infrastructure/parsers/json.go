package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses characters from JSON format.
type JSONParser struct{}

// Parse reads JSON from the reader: an array of open attribute mappings,
// one per character.
func (p *JSONParser) Parse(r io.Reader) ([]RawCharacter, error) {
	var raw []map[string]any

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	chars := make([]RawCharacter, 0, len(raw))
	for i, fields := range raw {
		chars = append(chars, RawCharacter{Fields: fields, LineNum: i + 1})
	}
	return chars, nil
}
