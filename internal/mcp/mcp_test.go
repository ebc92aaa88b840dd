package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/loom-portal/internal/common"
	"github.com/bobmcallan/loom-portal/internal/registry"
)

// --- Helpers ---

func testLogger() *common.Logger {
	return common.NewSilentLogger()
}

func testServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("loom-portal-test", "0.0.1",
		mcpserver.WithToolCapabilities(true),
	)
}

// mirroredRegistry wires a registry onto a fresh MCP server surface.
func mirroredRegistry(srv *mcpserver.MCPServer) *registry.Registry {
	surface := NewServerSurface(srv, testLogger())
	return registry.New(testLogger(),
		registry.WithSurfaceProvider(func() registry.CapabilitySurface {
			return surface
		}),
	)
}

// listTools calls tools/list on the MCPServer and returns the tools.
func listTools(t *testing.T, s *mcpserver.MCPServer) []mcpgo.Tool {
	t.Helper()

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	ctx := t.Context()
	result := s.HandleMessage(ctx, msg)

	resp, ok := result.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolsResult mcpgo.ListToolsResult
	if err := json.Unmarshal(resultJSON, &toolsResult); err != nil {
		t.Fatalf("failed to unmarshal ListToolsResult: %v", err)
	}

	return toolsResult.Tools
}

// callTool calls a tool on the MCPServer and returns the result.
func callTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) *mcpgo.CallToolResult {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":` + string(paramsJSON) + `}`)
	ctx := t.Context()
	result := s.HandleMessage(ctx, msg)

	resp, ok := result.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolResult mcpgo.CallToolResult
	if err := json.Unmarshal(resultJSON, &toolResult); err != nil {
		t.Fatalf("failed to unmarshal CallToolResult: %v", err)
	}

	return &toolResult
}

// extractText extracts the text field from an MCP content block.
func extractText(t *testing.T, content mcpgo.Content) string {
	t.Helper()
	contentJSON, _ := json.Marshal(content)
	var tc struct {
		Text string `json:"text"`
	}
	json.Unmarshal(contentJSON, &tc)
	return tc.Text
}

func findTool(tools []mcpgo.Tool, name string) (mcpgo.Tool, bool) {
	for _, tool := range tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return mcpgo.Tool{}, false
}

// --- Tests ---

func TestRegisteredToolAppearsOnServer(t *testing.T) {
	srv := testServer()
	reg := mirroredRegistry(srv)

	reg.Register(registry.NewLegacyTool("ping", "replies with pong", nil,
		func(context.Context, map[string]any, registry.AuthContext) (any, error) {
			return "pong", nil
		}))

	tools := listTools(t, srv)
	tool, ok := findTool(tools, "ping")
	if !ok {
		t.Fatalf("ping not listed, got %d tools", len(tools))
	}
	if tool.Description != "replies with pong" {
		t.Errorf("unexpected description: %s", tool.Description)
	}
}

func TestUnregisteredToolDisappearsFromServer(t *testing.T) {
	srv := testServer()
	reg := mirroredRegistry(srv)

	reg.Register(registry.NewLegacyTool("gone", "temporary", nil,
		func(context.Context, map[string]any, registry.AuthContext) (any, error) {
			return nil, nil
		}))
	reg.Unregister("gone")

	if _, ok := findTool(listTools(t, srv), "gone"); ok {
		t.Error("gone should be removed from the MCP server")
	}
}

func TestSchemaToolListsInputSchema(t *testing.T) {
	srv := testServer()
	reg := mirroredRegistry(srv)

	reg.Register(registry.NewSchemaTool("lookup", "looks things up",
		registry.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{"type": "string", "description": "search query"},
			},
			Required: []string{"query"},
		},
		&registry.ToolAnnotations{ReadOnlyHint: true},
		func(context.Context, map[string]any, registry.AuthContext) (any, error) {
			return nil, nil
		}))

	tool, ok := findTool(listTools(t, srv), "lookup")
	if !ok {
		t.Fatal("lookup not listed")
	}

	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		t.Fatalf("failed to marshal schema: %v", err)
	}
	var schema struct {
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(raw, &schema); err != nil {
		t.Fatalf("failed to unmarshal schema: %v", err)
	}
	if schema.Type != "object" {
		t.Errorf("expected object schema, got %s", schema.Type)
	}
	if _, ok := schema.Properties["query"]; !ok {
		t.Errorf("query property missing: %v", schema.Properties)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "query" {
		t.Errorf("required mismatch: %v", schema.Required)
	}
	if tool.Annotations.ReadOnlyHint == nil || !*tool.Annotations.ReadOnlyHint {
		t.Error("readOnly annotation should be exposed")
	}
}

func TestLegacyToolParamTypes(t *testing.T) {
	srv := testServer()
	reg := mirroredRegistry(srv)

	reg.Register(registry.NewLegacyTool("mixed", "mixed parameter types",
		map[string]registry.ParamSpec{
			"name":  {Type: "string", Description: "a name", Required: true},
			"count": {Type: "number", Default: 10},
			"deep":  {Type: "boolean"},
			"tags":  {Type: "array"},
		},
		func(context.Context, map[string]any, registry.AuthContext) (any, error) {
			return nil, nil
		}))

	tool, ok := findTool(listTools(t, srv), "mixed")
	if !ok {
		t.Fatal("mixed not listed")
	}

	props := tool.InputSchema.Properties
	for _, name := range []string{"name", "count", "deep", "tags"} {
		if _, ok := props[name]; !ok {
			t.Errorf("property %s missing from schema", name)
		}
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "name" {
		t.Errorf("required mismatch: %v", tool.InputSchema.Required)
	}
}

func TestCallToolReturnsBodyResult(t *testing.T) {
	srv := testServer()
	reg := mirroredRegistry(srv)

	reg.Register(registry.NewLegacyTool("greet", "greets", nil,
		func(_ context.Context, args map[string]any, _ registry.AuthContext) (any, error) {
			return map[string]any{"greeting": "hello " + args["who"].(string)}, nil
		}))

	result := callTool(t, srv, "greet", map[string]interface{}{"who": "world"})
	if result.IsError {
		t.Fatalf("unexpected error result: %v", result.Content)
	}
	text := extractText(t, result.Content[0])
	if !strings.Contains(text, "hello world") {
		t.Errorf("unexpected result text: %s", text)
	}
}

func TestCallToolErrorBecomesErrorResult(t *testing.T) {
	srv := testServer()
	reg := mirroredRegistry(srv)

	reg.Register(registry.NewLegacyTool("fail", "always fails", nil,
		func(context.Context, map[string]any, registry.AuthContext) (any, error) {
			return nil, errors.New("Session not found")
		}))

	result := callTool(t, srv, "fail", nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	text := extractText(t, result.Content[0])
	if text != "Session not found" {
		t.Errorf("expected normalized message, got %s", text)
	}
}

func TestCallToolSeesContextSetAfterRegistration(t *testing.T) {
	srv := testServer()
	reg := mirroredRegistry(srv)

	reg.Register(registry.NewLegacyTool("whoami", "reports the caller", nil,
		func(_ context.Context, _ map[string]any, auth registry.AuthContext) (any, error) {
			return auth.UserID, nil
		}))

	reg.SetAuthContext(registry.AuthContext{UserID: "alice"})
	result := callTool(t, srv, "whoami", nil)
	if text := extractText(t, result.Content[0]); text != "alice" {
		t.Errorf("expected alice, got %s", text)
	}

	reg.SetAuthContext(registry.AuthContext{UserID: "bob"})
	result = callTool(t, srv, "whoami", nil)
	if text := extractText(t, result.Content[0]); text != "bob" {
		t.Errorf("expected bob after context change, got %s", text)
	}
}

func TestTextResultShapes(t *testing.T) {
	cases := []struct {
		name   string
		result any
		want   string
	}{
		{"nil", nil, "{}"},
		{"string", "plain", "plain"},
		{"bytes", []byte("raw"), "raw"},
		{"object", map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := textResult(tc.result)
			if res.IsError {
				t.Fatalf("unexpected error result")
			}
			got := extractText(t, res.Content[0])
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
