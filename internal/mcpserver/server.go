// Package mcpserver exposes the indexing engine's lifecycle operations as
// MCP tools (spec.md §6): build_full_index, get_status, pause, resume,
// cancel, delete_index, and get_diagnostics, each scoped to a workspace
// path the caller supplies.
package mcpserver

import (
	"context"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vybe/cloudindexer/internal/engine"
	"github.com/vybe/cloudindexer/pkg/config"
)

// Server wraps an *engine.Engine behind an MCP tool surface.
type Server struct {
	cfg       *config.Config
	eng       *engine.Engine
	mcpServer *server.MCPServer
	userID    string
}

// New builds a Server over eng, registering every lifecycle tool.
func New(cfg *config.Config, eng *engine.Engine, userID string) *Server {
	s := &Server{cfg: cfg, eng: eng, userID: userID}

	mcpServer := server.NewMCPServer(cfg.Server.Name, cfg.Server.Version)
	tools := s.tools()
	for _, tool := range tools {
		mcpServer.AddTool(tool, s.handlerFor(tool.Name))
	}
	s.mcpServer = mcpServer

	log.Printf("mcpserver: initialized %s v%s with %d tools", cfg.Server.Name, cfg.Server.Version, len(tools))
	return s
}

// Start serves the registered tools over stdio until the process exits.
func (s *Server) Start(ctx context.Context) error {
	log.Printf("mcpserver: starting stdio transport")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func (s *Server) workspaceFromArgs(args map[string]interface{}) (engine.Workspace, error) {
	path, ok := args["workspace_path"].(string)
	if !ok || path == "" {
		return engine.Workspace{}, fmt.Errorf("workspace_path is required and must be a string")
	}
	return engine.Workspace{Path: path, UserID: s.userID}, nil
}

func (s *Server) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			args = make(map[string]interface{})
		}

		switch name {
		case toolBuildFullIndex:
			return s.handleBuildFullIndex(ctx, args)
		case toolGetStatus:
			return s.handleGetStatus(ctx, args)
		case toolPause:
			return s.handlePause(ctx, args)
		case toolResume:
			return s.handleResume(ctx, args)
		case toolCancel:
			return s.handleCancel(ctx, args)
		case toolDeleteIndex:
			return s.handleDeleteIndex(ctx, args)
		case toolGetDiagnostics:
			return s.handleGetDiagnostics(ctx, args)
		default:
			return errorResult(fmt.Sprintf("unknown tool: %s", name)), nil
		}
	}
}
