package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser parses characters from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed characters. The header
// row names the attribute keys; every non-empty cell becomes a string
// attribute. A "name" column is required.
func (p *CSVParser) Parse(r io.Reader) ([]RawCharacter, error) {
	reader := csv.NewReader(r)

	keys, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, keys)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) ([]string, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	keys := make([]string, len(header))
	hasName := false
	for i, col := range header {
		keys[i] = strings.TrimSpace(col)
		if keys[i] == "name" {
			hasName = true
		}
	}
	if !hasName {
		return nil, fmt.Errorf("missing required column: name")
	}
	return keys, nil
}

// readRecords reads all data rows and converts them to RawCharacters.
func (p *CSVParser) readRecords(reader *csv.Reader, keys []string) ([]RawCharacter, error) {
	var chars []RawCharacter
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		fields := make(map[string]any)
		for i, cell := range record {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			fields[keys[i]] = cell
		}
		if len(fields) == 0 {
			continue
		}
		chars = append(chars, RawCharacter{Fields: fields, LineNum: lineNum})
	}

	return chars, nil
}
