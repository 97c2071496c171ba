package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brandlens/brandlens/internal/export"
	"github.com/brandlens/brandlens/internal/session"
)

// MCPDeps holds dependencies for the MCP server. Session is a dedicated
// session for the connected agent; its result log is separate from any
// browser session.
type MCPDeps struct {
	Session *session.Session
}

// NewMCPServer creates an MCP server exposing the mention check and the
// CSV export as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"brandlens",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("brandlens: check whether generated answers mention a brand, and export the accumulated results as CSV."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("check_mention",
			mcp.WithDescription("Submit a prompt to the mention-detection backend and report whether the generated answer mentions the brand. The result is appended to this session's log."),
			mcp.WithString("prompt", mcp.Description("The prompt to send to the text-generation service"), mcp.Required()),
			mcp.WithString("brand", mcp.Description("The brand name to look for in the generated answer"), mcp.Required()),
		),
		mcpCheckMention(deps),
	)

	s.AddTool(
		mcp.NewTool("export_results",
			mcp.WithDescription("Export this session's accumulated results as a CSV document."),
		),
		mcpExportResults(deps),
	)

	return s
}

func mcpCheckMention(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return mcpError("prompt is required"), nil
		}
		brand, err := req.RequireString("brand")
		if err != nil {
			return mcpError("brand is required"), nil
		}

		deps.Session.UpdatePrompt(prompt)
		deps.Session.UpdateBrand(brand)

		out, err := deps.Session.Submit(ctx)
		switch {
		case errors.Is(err, session.ErrValidation):
			return mcpError("prompt and brand must be non-empty"), nil
		case errors.Is(err, session.ErrBusy):
			return mcpError("another submission is in flight; try again once it resolves"), nil
		case err != nil:
			return mcpError(fmt.Sprintf("submission failed: %v", err)), nil
		}

		type checkResult struct {
			Outcome   string `json:"outcome"`
			Prompt    string `json:"prompt,omitempty"`
			Brand     string `json:"brand,omitempty"`
			Mentioned bool   `json:"mentioned,omitempty"`
			Position  int    `json:"position,omitempty"`
			Error     string `json:"error,omitempty"`
		}

		res := checkResult{Error: out.Message}
		switch out.Kind {
		case session.Success:
			res.Outcome = "success"
		case session.MentionError:
			res.Outcome = "mention_error"
		case session.BackendError:
			res.Outcome = "backend_error"
		case session.TransportFailure:
			res.Outcome = "transport_failure"
		}
		if out.Record != nil {
			res.Prompt = out.Record.Prompt
			res.Brand = out.Record.Brand
			res.Mentioned = out.Record.Mentioned
			res.Position = out.Record.Position
		}

		b, err := json.Marshal(res)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}

		if out.Kind == session.BackendError || out.Kind == session.TransportFailure {
			return mcpError(string(b)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpExportResults(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := deps.Session.ExportCSV()
		if errors.Is(err, export.ErrNoResults) {
			return mcpText(session.NoticeNothingToExport), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("export failed: %v", err)), nil
		}
		return mcpText(string(data)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
