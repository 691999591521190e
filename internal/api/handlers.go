package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/visionforge/forge-core/internal/application/handlers"
	"github.com/visionforge/forge-core/internal/domain/apperr"
)

// sessionHeader carries the caller's session identity. Requests without it
// fall into the shared "local" session, which is what single-user desktop
// installations send.
const sessionHeader = "X-Session-ID"

const defaultSessionID = "local"

// maxBodyBytes caps request bodies. Character profiles are small JSON
// documents; anything larger is a client bug.
const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	characters *handlers.CharacterHandler
	continuity *handlers.ContinuityHandler
}

// NewHandler creates a new Handler.
func NewHandler(characters *handlers.CharacterHandler, continuity *handlers.ContinuityHandler) *Handler {
	return &Handler{characters: characters, continuity: continuity}
}

// requestSession returns the caller's session id, defaulting to "local".
func requestSession(r *http.Request) string {
	if s := r.Header.Get(sessionHeader); s != "" {
		return s
	}
	return defaultSessionID
}

// writeError maps domain errors onto HTTP status codes. op names the failed
// operation for server-side logs; client bodies carry the error text for
// user-actionable failures and a generic message for system faults.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNoActiveCharacter):
		writeJSON(w, http.StatusConflict, errorBody("no active character in session, save a character first"))
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrVersionNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrPersistence):
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("storage unavailable"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// SaveCharacter handles POST /api/characters.
func (h *Handler) SaveCharacter(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req SaveCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Attributes) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("attributes are required"))
		return
	}
	result, err := h.characters.HandleSave(r.Context(), requestSession(r), req.Attributes, req.ToolName, req.Description, req.PromptContext)
	if err != nil {
		writeError(w, "save character", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// UpdateCharacter handles PATCH /api/characters/current.
func (h *Handler) UpdateCharacter(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req UpdateCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Attributes) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("attributes are required"))
		return
	}
	result, err := h.characters.HandleUpdate(r.Context(), requestSession(r), req.Attributes, req.ToolName, req.Description)
	if err != nil {
		writeError(w, "update character", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CurrentCharacter handles GET /api/characters/current.
func (h *Handler) CurrentCharacter(w http.ResponseWriter, r *http.Request) {
	character, err := h.characters.HandleCurrent(r.Context(), requestSession(r))
	if err != nil {
		writeError(w, "get current character", err)
		return
	}
	if character == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no active character in session"))
		return
	}
	writeJSON(w, http.StatusOK, character)
}

// ListCharacters handles GET /api/characters.
func (h *Handler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	characters, err := h.characters.HandleList(r.Context(), limit)
	if err != nil {
		writeError(w, "list characters", err)
		return
	}
	writeJSON(w, http.StatusOK, CharacterListResponse{
		Characters: characters,
		Total:      len(characters),
	})
}

// CharacterHistory handles GET /api/characters/{id}/history.
func (h *Handler) CharacterHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.characters.HandleHistory(r.Context(), requestSession(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "character history", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// CharacterDiff handles GET /api/characters/{id}/diff.
func (h *Handler) CharacterDiff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, errFrom := strconv.Atoi(q.Get("from"))
	to, errTo := strconv.Atoi(q.Get("to"))
	if errFrom != nil || errTo != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("from and to query parameters are required"))
		return
	}
	diff, err := h.characters.HandleDiff(r.Context(), requestSession(r), chi.URLParam(r, "id"), from, to)
	if err != nil {
		writeError(w, "character diff", err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

// RollbackCharacter handles POST /api/characters/{id}/rollback.
func (h *Handler) RollbackCharacter(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req RollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Version < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("version must be a positive integer"))
		return
	}
	result, err := h.characters.HandleRollback(r.Context(), requestSession(r), chi.URLParam(r, "id"), req.Version)
	if err != nil {
		writeError(w, "rollback character", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ArchiveCharacter handles POST /api/characters/{id}/archive.
func (h *Handler) ArchiveCharacter(w http.ResponseWriter, r *http.Request) {
	if err := h.characters.HandleArchive(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "archive character", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckContinuity handles POST /api/continuity/check. Content checks take
// priority when both content and character_id are present; with neither, the
// session's active character is checked.
func (h *Handler) CheckContinuity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var (
		report *Report
		err    error
	)
	if req.Content != "" {
		report, err = h.continuity.HandleCheckContent(r.Context(), req.Content, req.CharacterData)
	} else {
		report, err = h.continuity.HandleCheckCharacter(r.Context(), requestSession(r), req.CharacterID)
	}
	if err != nil {
		writeError(w, "continuity check", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RegisterCharacter handles POST /api/continuity/register.
func (h *Handler) RegisterCharacter(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.CharacterData) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("character_data is required"))
		return
	}
	id, err := h.continuity.HandleRegister(r.Context(), req.CharacterData)
	if err != nil {
		writeError(w, "register character", err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{ID: id})
}
