// Package mcp mirrors the tool registry into an MCP server so registered
// tools are callable by MCP clients, and serves that server over HTTP.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/loom-portal/internal/common"
	"github.com/bobmcallan/loom-portal/internal/registry"
)

// ServerSurface implements registry.CapabilitySurface on top of an mcp-go
// MCPServer. Tool handlers forward to the registry-provided invoker, which
// consults live registry state on every call.
type ServerSurface struct {
	srv    *server.MCPServer
	logger *common.Logger
}

// NewServerSurface wraps an MCPServer as a capability surface.
func NewServerSurface(srv *server.MCPServer, logger *common.Logger) *ServerSurface {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &ServerSurface{srv: srv, logger: logger}
}

// RegisterTool translates the definition and adds it to the MCP server.
// Re-registering a name replaces the previous tool, matching registry
// overwrite semantics.
func (s *ServerSurface) RegisterTool(def registry.ToolDefinition, invoke registry.ToolInvoker) error {
	tool, err := buildTool(def)
	if err != nil {
		return err
	}
	s.srv.AddTool(tool, invokerHandler(invoke))
	s.logger.Debug().Str("tool", def.Name).Msg("tool mirrored to MCP surface")
	return nil
}

// UnregisterTool removes the tool from the MCP server. Unknown names are a
// no-op.
func (s *ServerSurface) UnregisterTool(name string) {
	s.srv.DeleteTools(name)
}

// invokerHandler adapts a registry invoker to an MCP tool handler. Tool-body
// failures become error results rather than protocol errors, so MCP clients
// see the normalized message.
func invokerHandler(invoke registry.ToolInvoker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := invoke(ctx, request.GetArguments())
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return textResult(result), nil
	}
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// textResult renders a tool result as a text content block. Strings pass
// through; everything else is serialized as JSON.
func textResult(result any) *mcp.CallToolResult {
	var text string
	switch v := result.(type) {
	case nil:
		text = "{}"
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		out, err := json.Marshal(v)
		if err != nil {
			return errorResult("failed to marshal tool result")
		}
		text = string(out)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

// Compile-time interface check.
var _ registry.CapabilitySurface = (*ServerSurface)(nil)
