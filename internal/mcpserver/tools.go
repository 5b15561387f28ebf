package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	toolBuildFullIndex = "build_full_index"
	toolGetStatus      = "get_status"
	toolPause          = "pause"
	toolResume         = "resume"
	toolCancel         = "cancel"
	toolDeleteIndex    = "delete_index"
	toolGetDiagnostics = "get_diagnostics"
)

func workspacePathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the workspace root to operate on",
	}
}

func (s *Server) tools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        toolBuildFullIndex,
			Description: "Build or resume the full semantic index for a workspace. Use this the first time a workspace is opened, or to catch up after indexing was interrupted. Waits for the run to end and returns its final status; a run paused partway through keeps waiting until it is resumed or canceled.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"workspace_path": workspacePathProperty()},
				Required:   []string{"workspace_path"},
			},
		},
		{
			Name:        toolGetStatus,
			Description: "Report a workspace's current indexing status: state, files and chunks processed so far, and whether a run is paused.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"workspace_path": workspacePathProperty()},
				Required:   []string{"workspace_path"},
			},
		},
		{
			Name:        toolPause,
			Description: "Pause the active build for a workspace between files. The run resumes from the same point with resume, or from the last checkpoint after a restart.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"workspace_path": workspacePathProperty(),
					"reason": map[string]interface{}{
						"type":        "string",
						"description": "Optional human-readable reason surfaced in status while paused",
					},
				},
				Required: []string{"workspace_path"},
			},
		},
		{
			Name:        toolResume,
			Description: "Clear a prior pause request for a workspace, letting its active build continue.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"workspace_path": workspacePathProperty()},
				Required:   []string{"workspace_path"},
			},
		},
		{
			Name:        toolCancel,
			Description: "Cancel the active build for a workspace. Progress already checkpointed is preserved and can be resumed with build_full_index.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"workspace_path": workspacePathProperty()},
				Required:   []string{"workspace_path"},
			},
		},
		{
			Name:        toolDeleteIndex,
			Description: "Delete a workspace's index entirely: removes its vectors, stops its file watcher, and clears its checkpoint. Use when a workspace should be removed from indexing or fully rebuilt from scratch.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"workspace_path": workspacePathProperty()},
				Required:   []string{"workspace_path"},
			},
		},
		{
			Name:        toolGetDiagnostics,
			Description: "Report detailed diagnostics for a workspace: status plus vector-store connectivity, vector count, checkpoint bookkeeping, and a sample-query probe.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]interface{}{"workspace_path": workspacePathProperty()},
				Required:   []string{"workspace_path"},
			},
		},
	}
}

func (s *Server) handleBuildFullIndex(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	ws, err := s.workspaceFromArgs(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	snap, err := s.eng.BuildFullIndex(ctx, ws)
	if err != nil {
		return errorResult(fmt.Sprintf("build_full_index failed: %v", err)), nil
	}
	return successResult(snap), nil
}

func (s *Server) handleGetStatus(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	ws, err := s.workspaceFromArgs(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return successResult(s.eng.GetStatus(ctx, ws)), nil
}

func (s *Server) handlePause(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	ws, err := s.workspaceFromArgs(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	reason, _ := args["reason"].(string)
	s.eng.Pause(ws, reason)
	return successResult(map[string]interface{}{"message": "pause requested", "workspace_path": ws.Path}), nil
}

func (s *Server) handleResume(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	ws, err := s.workspaceFromArgs(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	s.eng.Resume(ws)
	return successResult(map[string]interface{}{"message": "resume requested", "workspace_path": ws.Path}), nil
}

func (s *Server) handleCancel(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	ws, err := s.workspaceFromArgs(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	s.eng.Cancel(ws)
	return successResult(map[string]interface{}{"message": "cancel requested", "workspace_path": ws.Path}), nil
}

func (s *Server) handleDeleteIndex(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	ws, err := s.workspaceFromArgs(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	if err := s.eng.DeleteIndex(ctx, ws); err != nil {
		return errorResult(fmt.Sprintf("delete_index failed: %v", err)), nil
	}
	return successResult(map[string]interface{}{"message": "index deleted", "workspace_path": ws.Path}), nil
}

func (s *Server) handleGetDiagnostics(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	ws, err := s.workspaceFromArgs(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return successResult(s.eng.GetDiagnostics(ctx, ws)), nil
}

func successResult(data interface{}) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode result: %v", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(jsonData)}},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: fmt.Sprintf("Error: %s", message)}},
		IsError: true,
	}
}
