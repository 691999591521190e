package services

import (
	"context"
	"fmt"

	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/ports"
	"github.com/visionforge/forge-core/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle already-registered characters
// during import.
type ConflictStrategy string

const (
	// ConflictSkip keeps the existing registry entry.
	ConflictSkip ConflictStrategy = "skip"
	// ConflictOverwrite replaces the existing entry with the imported one.
	ConflictOverwrite ConflictStrategy = "overwrite"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle already-registered ids
}

// ImportError describes one rejected row.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []ImportError
}

// ImportService seeds the continuity registry from external files.
type ImportService struct {
	store      ports.CharacterStore
	continuity *ContinuityService
}

// NewImportService creates a new import service.
func NewImportService(store ports.CharacterStore, continuity *ContinuityService) *ImportService {
	return &ImportService{store: store, continuity: continuity}
}

// Import validates the parsed rows and registers them. Rows that fail
// validation are reported per line; the valid rows still import.
func (s *ImportService) Import(ctx context.Context, rows []parsers.RawCharacter, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	valid := make([]entities.Attributes, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		lineNum := row.LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		if importErr := validateRow(row, lineNum); importErr != nil {
			result.Errors = append(result.Errors, *importErr)
			continue
		}
		valid = append(valid, entities.Attributes(row.Fields))
	}
	if len(valid) == 0 {
		return result, nil
	}

	toImport := make([]entities.Attributes, 0, len(valid))
	for _, attrs := range valid {
		id := registryID(attrs)
		if id == "" {
			toImport = append(toImport, attrs)
			continue
		}
		existing, err := s.store.FindRegistryEntry(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("checking existing entry: %w", err)
		}
		if existing != nil && opts.OnConflict != ConflictOverwrite {
			result.Skipped++
			continue
		}
		toImport = append(toImport, attrs)
	}

	result.Imported = len(toImport)
	if opts.DryRun || len(toImport) == 0 {
		return result, nil
	}

	if _, err := s.continuity.RegisterBatch(ctx, toImport); err != nil {
		return nil, fmt.Errorf("registering batch: %w", err)
	}
	return result, nil
}

// validateRow checks one parsed row before registration.
func validateRow(row *parsers.RawCharacter, lineNum int) *ImportError {
	if len(row.Fields) == 0 {
		return &ImportError{Line: lineNum, Message: "empty row"}
	}
	attrs := entities.Attributes(row.Fields)
	if attrs.String(entities.AttrName) == "" {
		return &ImportError{Line: lineNum, Field: "name", Message: "missing required field: name"}
	}
	if err := validateAttributes(attrs); err != nil {
		return &ImportError{Line: lineNum, Message: err.Error()}
	}
	return nil
}
