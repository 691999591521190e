package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionforge/forge-core/internal/application/handlers"
	"github.com/visionforge/forge-core/internal/domain/entities"
	"github.com/visionforge/forge-core/internal/domain/mocks"
	"github.com/visionforge/forge-core/internal/domain/services"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	store := mocks.NewCharacterStore()
	engine := services.NewContinuityService(store, nil, nil, nil, nil, services.ContinuityOptions{})
	characters := handlers.NewCharacterHandler(
		services.NewCharacterService(store),
		services.NewSessionService(store),
	)
	continuity := handlers.NewContinuityHandler(
		engine,
		services.NewImportService(store, engine),
		services.NewSessionService(store),
	)
	return New(characters, continuity)
}

// callTool calls a tool handler directly, the way the MCP dispatcher would.
func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "save_character":
		result, err = srv.saveCharacter(ctx, req)
	case "update_character":
		result, err = srv.updateCharacter(ctx, req)
	case "current_character":
		result, err = srv.currentCharacter(ctx, req)
	case "character_history":
		result, err = srv.characterHistory(ctx, req)
	case "rollback_character":
		result, err = srv.rollbackCharacter(ctx, req)
	case "check_continuity":
		result, err = srv.checkContinuity(ctx, req)
	case "register_character":
		result, err = srv.registerCharacter(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	require.NoError(t, err)
	return result
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, r.Content)
	tc, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

// decodeResult unmarshals a JSON tool result.
func decodeResult[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, r)), &v))
	return v
}

func TestSaveAndCurrentCharacter(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "save_character", map[string]any{
		"character_data": `{"name": "Vex", "mood": "wary"}`,
		"tool_name":      "character_generator",
		"session":        "desk",
	})
	require.False(t, r.IsError, resultText(t, r))
	saved := decodeResult[services.SaveResult](t, r)
	assert.NotEmpty(t, saved.CharacterID)
	assert.Equal(t, 1, saved.Version)
	assert.True(t, saved.Created)

	r = callTool(t, srv, "current_character", map[string]any{"session": "desk"})
	require.False(t, r.IsError)
	current := decodeResult[entities.Character](t, r)
	assert.Equal(t, saved.CharacterID, current.ID)
	assert.Equal(t, "Vex", current.Attributes.String("name"))

	t.Run("no session arg means local", func(t *testing.T) {
		r := callTool(t, srv, "current_character", map[string]any{})
		assert.Equal(t, "no active character in session", resultText(t, r))
	})
}

func TestSaveCharacter_Validation(t *testing.T) {
	srv := testServer(t)

	t.Run("missing character_data", func(t *testing.T) {
		r := callTool(t, srv, "save_character", map[string]any{})
		assert.True(t, r.IsError)
	})

	t.Run("malformed character_data", func(t *testing.T) {
		r := callTool(t, srv, "save_character", map[string]any{"character_data": "{not json"})
		assert.True(t, r.IsError)
		assert.Contains(t, resultText(t, r), "JSON object")
	})
}

func TestUpdateCharacter(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "save_character", map[string]any{
		"character_data": `{"name": "Vex", "mood": "wary"}`,
		"session":        "desk",
	})
	require.False(t, r.IsError)

	r = callTool(t, srv, "update_character", map[string]any{
		"character_data": `{"mood": "grim"}`,
		"session":        "desk",
	})
	require.False(t, r.IsError, resultText(t, r))
	updated := decodeResult[services.SaveResult](t, r)
	assert.Equal(t, 2, updated.Version)

	r = callTool(t, srv, "current_character", map[string]any{"session": "desk"})
	current := decodeResult[entities.Character](t, r)
	assert.Equal(t, "grim", current.Attributes.String("mood"))

	t.Run("no active character", func(t *testing.T) {
		r := callTool(t, srv, "update_character", map[string]any{
			"character_data": `{"mood": "grim"}`,
			"session":        "ghost",
		})
		assert.True(t, r.IsError)
		assert.Contains(t, resultText(t, r), "no active character")
	})
}

func TestCharacterHistory(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "save_character", map[string]any{
		"character_data": `{"name": "Vex"}`,
		"session":        "desk",
	})
	saved := decodeResult[services.SaveResult](t, r)

	r = callTool(t, srv, "update_character", map[string]any{
		"character_data": `{"mood": "grim"}`,
		"session":        "desk",
	})
	require.False(t, r.IsError)

	t.Run("session fallback", func(t *testing.T) {
		r := callTool(t, srv, "character_history", map[string]any{"session": "desk"})
		require.False(t, r.IsError, resultText(t, r))
		history := decodeResult[handlers.HistoryResult](t, r)
		assert.Equal(t, saved.CharacterID, history.CharacterID)
		assert.Len(t, history.Entries, 2)
	})

	t.Run("explicit character id", func(t *testing.T) {
		r := callTool(t, srv, "character_history", map[string]any{"character_id": saved.CharacterID})
		require.False(t, r.IsError)
		history := decodeResult[handlers.HistoryResult](t, r)
		assert.Equal(t, saved.CharacterID, history.CharacterID)
	})
}

func TestRollbackCharacter(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "save_character", map[string]any{
		"character_data": `{"name": "Vex", "mood": "calm"}`,
		"session":        "desk",
	})
	require.False(t, r.IsError)

	r = callTool(t, srv, "update_character", map[string]any{
		"character_data": `{"mood": "wary"}`,
		"session":        "desk",
	})
	require.False(t, r.IsError)

	r = callTool(t, srv, "rollback_character", map[string]any{
		"version": 1,
		"session": "desk",
	})
	require.False(t, r.IsError, resultText(t, r))
	result := decodeResult[services.RollbackResult](t, r)
	assert.Equal(t, 3, result.Version)
	assert.Equal(t, 1, result.RestoredFrom)
	assert.Equal(t, "calm", result.Attributes.String("mood"))

	t.Run("missing version", func(t *testing.T) {
		r := callTool(t, srv, "rollback_character", map[string]any{"session": "desk"})
		assert.True(t, r.IsError)
	})
}

func TestCheckContinuity(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "save_character", map[string]any{
		"character_data": `{
			"name": "Vex",
			"origin": "an ordinary accountant with no powers",
			"power_suggestions": [{"name": "Shadow Flame", "description": "channels dark magic", "cost_level": 9}]
		}`,
		"session": "desk",
	})
	require.False(t, r.IsError, resultText(t, r))

	t.Run("session fallback", func(t *testing.T) {
		r := callTool(t, srv, "check_continuity", map[string]any{"session": "desk"})
		require.False(t, r.IsError, resultText(t, r))
		report := decodeResult[entities.Report](t, r)
		assert.NotZero(t, report.TotalViolations)
		assert.Contains(t, resultText(t, r), "power_inconsistency")
	})

	t.Run("content check", func(t *testing.T) {
		r := callTool(t, srv, "check_continuity", map[string]any{
			"content": "Vex is haunted by a dark past.",
		})
		require.False(t, r.IsError)
		report := decodeResult[entities.Report](t, r)
		assert.NotZero(t, report.TotalViolations)
	})

	t.Run("no target and no active character", func(t *testing.T) {
		r := callTool(t, srv, "check_continuity", map[string]any{"session": "ghost"})
		assert.True(t, r.IsError)
	})
}

func TestRegisterCharacter(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "register_character", map[string]any{
		"character_data": `{"name": "Mara", "persona_summary": "a storm-caller"}`,
	})
	require.False(t, r.IsError, resultText(t, r))
	resp := decodeResult[map[string]string](t, r)
	assert.NotEmpty(t, resp["id"])
}
