// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Forge character tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/visionforge/forge-core/internal/application/handlers"
	"github.com/visionforge/forge-core/internal/domain/entities"
)

// defaultSession is the session id used when a tool call carries none.
// Single-user installations never need to pass one.
const defaultSession = "local"

// Server wraps the MCP server with Forge tools.
type Server struct {
	mcp        *server.MCPServer
	characters *handlers.CharacterHandler
	continuity *handlers.ContinuityHandler
}

// New creates a new MCP server with all Forge tools registered.
func New(characters *handlers.CharacterHandler, continuity *handlers.ContinuityHandler) *Server {
	s := &Server{characters: characters, continuity: continuity}

	s.mcp = server.NewMCPServer(
		"Forge",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("save_character",
		mcp.WithDescription("Save a full character profile as a new version. "+
			"Creates a character when the session has none, otherwise records a "+
			"new version of the active one."),
		mcp.WithString("character_data", mcp.Required(), mcp.Description("JSON object of character attributes (name, origin, traits, ...)")),
		mcp.WithString("tool_name", mcp.Description("Tool recording the save (e.g. character_generator)")),
		mcp.WithString("description", mcp.Description("Human-readable description of the change")),
		mcp.WithString("prompt_context", mcp.Description("Prompt or context that produced this version")),
		mcp.WithString("session", mcp.Description("Session id (defaults to \"local\")")),
	), s.saveCharacter)

	s.mcp.AddTool(mcp.NewTool("update_character",
		mcp.WithDescription("Merge a partial attribute patch into the session's active character. "+
			"Fails when the session has no active character; save one first."),
		mcp.WithString("character_data", mcp.Required(), mcp.Description("JSON object with only the attributes to change")),
		mcp.WithString("tool_name", mcp.Description("Tool recording the update")),
		mcp.WithString("description", mcp.Description("Human-readable description of the change")),
		mcp.WithString("session", mcp.Description("Session id (defaults to \"local\")")),
	), s.updateCharacter)

	s.mcp.AddTool(mcp.NewTool("current_character",
		mcp.WithDescription("Read the session's active character with all attributes."),
		mcp.WithString("session", mcp.Description("Session id (defaults to \"local\")")),
	), s.currentCharacter)

	s.mcp.AddTool(mcp.NewTool("character_history",
		mcp.WithDescription("List the full version ledger of a character, oldest first."),
		mcp.WithString("character_id", mcp.Description("Character id (defaults to the session's active character)")),
		mcp.WithString("session", mcp.Description("Session id (defaults to \"local\")")),
	), s.characterHistory)

	s.mcp.AddTool(mcp.NewTool("rollback_character",
		mcp.WithDescription("Restore an earlier version of a character as a new head version. "+
			"Nothing is deleted; the rollback itself is recorded in the ledger."),
		mcp.WithNumber("version", mcp.Required(), mcp.Description("Version number to restore")),
		mcp.WithString("character_id", mcp.Description("Character id (defaults to the session's active character)")),
		mcp.WithString("session", mcp.Description("Session id (defaults to \"local\")")),
	), s.rollbackCharacter)

	s.mcp.AddTool(mcp.NewTool("check_continuity",
		mcp.WithDescription("Check a character or proposed content for continuity violations "+
			"(power inconsistencies, contradictions, timeline errors, style issues). "+
			"Pass content to check free text, character_id to check a stored character, "+
			"or neither to check the session's active character."),
		mcp.WithString("character_id", mcp.Description("Stored character to check")),
		mcp.WithString("content", mcp.Description("Proposed free-text content to check instead of a stored character")),
		mcp.WithString("character_data", mcp.Description("JSON object of attributes to check the content against")),
		mcp.WithString("session", mcp.Description("Session id (defaults to \"local\")")),
	), s.checkContinuity)

	s.mcp.AddTool(mcp.NewTool("register_character",
		mcp.WithDescription("Add a character to the shared continuity registry so later "+
			"checks can flag name collisions and cross-references against it."),
		mcp.WithString("character_data", mcp.Required(), mcp.Description("JSON object of character attributes; name is used for collision checks")),
	), s.registerCharacter)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// sessionArg returns the session argument, defaulting to "local".
func sessionArg(req mcp.CallToolRequest) string {
	if s, err := req.RequireString("session"); err == nil && s != "" {
		return s
	}
	return defaultSession
}

func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

// parseAttributes decodes a JSON object argument into an attribute mapping.
func parseAttributes(raw string) (entities.Attributes, error) {
	var attrs entities.Attributes
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil, fmt.Errorf("character_data must be a JSON object: %v", err)
	}
	return attrs, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveCharacter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("character_data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	attrs, err := parseAttributes(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.characters.HandleSave(ctx, sessionArg(req), attrs,
		optionalString(req, "tool_name"),
		optionalString(req, "description"),
		optionalString(req, "prompt_context"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) updateCharacter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("character_data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patch, err := parseAttributes(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.characters.HandleUpdate(ctx, sessionArg(req), patch,
		optionalString(req, "tool_name"),
		optionalString(req, "description"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) currentCharacter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	character, err := s.characters.HandleCurrent(ctx, sessionArg(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if character == nil {
		return mcp.NewToolResultText("no active character in session"), nil
	}
	return jsonResult(character)
}

func (s *Server) characterHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	history, err := s.characters.HandleHistory(ctx, sessionArg(req), optionalString(req, "character_id"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(history)
}

func (s *Server) rollbackCharacter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	version, err := req.RequireInt("version")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.characters.HandleRollback(ctx, sessionArg(req), optionalString(req, "character_id"), version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) checkContinuity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := optionalString(req, "content")

	var attrs entities.Attributes
	if raw := optionalString(req, "character_data"); raw != "" {
		var err error
		if attrs, err = parseAttributes(raw); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	var (
		report *entities.Report
		err    error
	)
	if content != "" {
		report, err = s.continuity.HandleCheckContent(ctx, content, attrs)
	} else {
		report, err = s.continuity.HandleCheckCharacter(ctx, sessionArg(req), optionalString(req, "character_id"))
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (s *Server) registerCharacter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("character_data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	attrs, err := parseAttributes(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.continuity.HandleRegister(ctx, attrs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]string{"id": id})
}
