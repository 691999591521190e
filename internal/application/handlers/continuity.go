package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/services"
	"github.com/visionforge/forge-core/internal/infrastructure/parsers"
)

// ContinuityHandler handles continuity checks and registry operations.
type ContinuityHandler struct {
	engine   *services.ContinuityService
	imports  *services.ImportService
	sessions *services.SessionService
}

// NewContinuityHandler creates a new continuity handler.
func NewContinuityHandler(engine *services.ContinuityService, imports *services.ImportService, sessions *services.SessionService) *ContinuityHandler {
	return &ContinuityHandler{
		engine:   engine,
		imports:  imports,
		sessions: sessions,
	}
}

// HandleCheckCharacter runs a full continuity check on characterID, falling
// back to the session's active character when characterID is empty.
func (h *ContinuityHandler) HandleCheckCharacter(ctx context.Context, sessionID, characterID string) (*entities.Report, error) {
	id, err := resolveCharacterID(ctx, h.sessions, sessionID, characterID)
	if err != nil {
		return nil, err
	}
	return h.engine.CheckCharacter(ctx, id)
}

// HandleCheckContent checks proposed free-text content, optionally against
// a character attribute mapping supplied with it.
func (h *ContinuityHandler) HandleCheckContent(ctx context.Context, content string, attrs entities.Attributes) (*entities.Report, error) {
	return h.engine.CheckContent(ctx, content, attrs)
}

// HandleRegister adds one character to the shared continuity registry and
// returns its registry id.
func (h *ContinuityHandler) HandleRegister(ctx context.Context, data entities.Attributes) (string, error) {
	return h.engine.Register(ctx, data)
}

// RegisterFileOptions controls bulk registration behavior.
type RegisterFileOptions struct {
	Format    string // "json", "csv", or "auto"
	DryRun    bool   // Validate without saving
	Overwrite bool   // Replace already-registered ids instead of skipping
}

// RegisterFileResult contains the result of a bulk registration.
type RegisterFileResult struct {
	Imported int
	Skipped  int
	Errors   []services.ImportError
}

// HandleRegisterFile seeds the continuity registry from a CSV or JSON file.
func (h *ContinuityHandler) HandleRegisterFile(ctx context.Context, filePath string, opts RegisterFileOptions) (*RegisterFileResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}
	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	rows, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(rows) == 0 {
		return &RegisterFileResult{}, nil
	}

	serviceOpts := services.ImportOptions{DryRun: opts.DryRun}
	if opts.Overwrite {
		serviceOpts.OnConflict = services.ConflictOverwrite
	}

	result, err := h.imports.Import(ctx, rows, serviceOpts)
	if err != nil {
		return nil, err
	}

	return &RegisterFileResult{
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Errors:   result.Errors,
	}, nil
}
