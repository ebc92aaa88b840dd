package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/bobmcallan/loom-portal/internal/registry"
)

// defaultSession is the session used by send_message when the caller does not
// name one.
const defaultSession = "default"

// Definitions returns the reference tool set for the Loom daemon's session
// API. Each tool body closes over the client; caller identity flows into the
// requests through the client's token source.
func Definitions(c *DaemonClient) []registry.ToolDefinition {
	return []registry.ToolDefinition{
		sendMessageTool(c),
		getConversationTool(c),
		listSessionsTool(c),
		newSessionTool(c),
		getStatusTool(c),
	}
}

// Plugin wraps the reference tool set as a plugin, so it registers through the
// same manifest path plugin-contributed tools use.
func Plugin(c *DaemonClient) *registry.StaticPlugin {
	defs := Definitions(c)
	decls := make([]registry.ToolDeclaration, 0, len(defs))
	handlers := make(map[string]registry.ToolFunc, len(defs))
	for _, def := range defs {
		decls = append(decls, registry.ToolDeclaration{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: &def.Schema.InputSchema,
			Annotations: def.Schema.Annotations,
		})
		handlers[def.Name] = def.Body
	}
	return &registry.StaticPlugin{Tools: decls, Handlers: handlers}
}

func sendMessageTool(c *DaemonClient) registry.ToolDefinition {
	return registry.NewSchemaTool(
		"send_message",
		"Send a message to a Loom session",
		registry.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"sessionId": map[string]any{
					"type":        "string",
					"description": "Target session ID (defaults to \"default\")",
				},
				"text": map[string]any{
					"type":        "string",
					"description": "Message text to send",
				},
			},
			Required: []string{"text"},
		},
		nil,
		func(ctx context.Context, args map[string]any, _ registry.AuthContext) (any, error) {
			text, err := requiredString(args, "text")
			if err != nil {
				return nil, err
			}
			session := optionalString(args, "sessionId", defaultSession)
			return c.Post(ctx, "/sessions/"+url.PathEscape(session)+"/inject", map[string]any{
				"message": text,
			})
		},
	)
}

func getConversationTool(c *DaemonClient) registry.ToolDefinition {
	return registry.NewSchemaTool(
		"get_conversation",
		"Get the conversation history of a Loom session",
		registry.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"sessionId": map[string]any{
					"type":        "string",
					"description": "Session ID to read history from",
				},
				"limit": map[string]any{
					"type":        "number",
					"description": "Maximum number of history entries to return",
				},
			},
			Required: []string{"sessionId"},
		},
		&registry.ToolAnnotations{ReadOnlyHint: true},
		func(ctx context.Context, args map[string]any, _ registry.AuthContext) (any, error) {
			session, err := requiredString(args, "sessionId")
			if err != nil {
				return nil, err
			}
			path := "/sessions/" + url.PathEscape(session) + "/history"
			if limit, ok := optionalNumber(args, "limit"); ok {
				path += "?limit=" + url.QueryEscape(fmt.Sprintf("%d", int(limit)))
			}
			return c.Get(ctx, path)
		},
	)
}

func listSessionsTool(c *DaemonClient) registry.ToolDefinition {
	return registry.NewSchemaTool(
		"list_sessions",
		"List active Loom sessions",
		registry.InputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
		&registry.ToolAnnotations{ReadOnlyHint: true},
		func(ctx context.Context, _ map[string]any, _ registry.AuthContext) (any, error) {
			return c.Get(ctx, "/sessions")
		},
	)
}

func newSessionTool(c *DaemonClient) registry.ToolDefinition {
	return registry.NewSchemaTool(
		"new_session",
		"Create a new Loom session",
		registry.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"model": map[string]any{
					"type":        "string",
					"description": "Model the new session should use",
				},
			},
		},
		nil,
		func(ctx context.Context, args map[string]any, _ registry.AuthContext) (any, error) {
			body := map[string]any{
				"name": "session-" + uuid.NewString()[:8],
			}
			if model := optionalString(args, "model", ""); model != "" {
				body["context"] = "Use model: " + model
			}
			return c.Post(ctx, "/sessions", body)
		},
	)
}

func getStatusTool(c *DaemonClient) registry.ToolDefinition {
	return registry.NewSchemaTool(
		"get_status",
		"Get the Loom daemon status",
		registry.InputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
		&registry.ToolAnnotations{ReadOnlyHint: true},
		func(ctx context.Context, _ map[string]any, _ registry.AuthContext) (any, error) {
			return c.Get(ctx, "/status")
		},
	)
}

// requiredString extracts a required string argument. Validation failures are
// reported before any daemon request is made.
func requiredString(args map[string]any, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s parameter is required", name)
	}
	return v, nil
}

// optionalString extracts an optional string argument with a fallback.
func optionalString(args map[string]any, name, fallback string) string {
	if v, ok := args[name].(string); ok && v != "" {
		return v
	}
	return fallback
}

// optionalNumber extracts an optional numeric argument. JSON numbers arrive
// as float64; ints are accepted for direct callers.
func optionalNumber(args map[string]any, name string) (float64, bool) {
	switch v := args[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
