package registry

import "context"

// ToolFunc is the callable body of a registered tool. Both declaration shapes
// share it: legacy handlers receive the caller context as the auth argument,
// schema-style tools typically close over their outbound client and may also
// read the caller context from ctx via CallerFromContext.
type ToolFunc func(ctx context.Context, args map[string]any, auth AuthContext) (any, error)

// ParamSpec describes one parameter in the legacy declaration shape.
type ParamSpec struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// InputSchema is the JSON-Schema-shaped input declaration used by
// schema-aligned tools.
type InputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Required   []string       `json:"required,omitempty"`
}

// ToolAnnotations carries optional behavior hints for schema-aligned tools.
type ToolAnnotations struct {
	// ReadOnlyHint marks a tool that performs no mutation.
	ReadOnlyHint bool `json:"readOnlyHint,omitempty"`
}

// LegacyDecl is the ad-hoc parameter-map declaration shape.
type LegacyDecl struct {
	Params map[string]ParamSpec
}

// SchemaDecl is the inputSchema/annotations declaration shape.
type SchemaDecl struct {
	InputSchema InputSchema
	Annotations *ToolAnnotations
}

// ToolDefinition is the unit of registration. Exactly one of Legacy or Schema
// is set; the registry stores both shapes without interpreting them, the
// capability surface translates whichever is present.
type ToolDefinition struct {
	Name        string
	Description string

	Legacy *LegacyDecl
	Schema *SchemaDecl

	Body ToolFunc
}

// NewLegacyTool builds a definition in the legacy parameter-map shape.
func NewLegacyTool(name, description string, params map[string]ParamSpec, body ToolFunc) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: description,
		Legacy:      &LegacyDecl{Params: params},
		Body:        body,
	}
}

// NewSchemaTool builds a definition in the inputSchema/annotations shape.
func NewSchemaTool(name, description string, schema InputSchema, annotations *ToolAnnotations, body ToolFunc) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: description,
		Schema:      &SchemaDecl{InputSchema: schema, Annotations: annotations},
		Body:        body,
	}
}

// ReadOnly reports whether the definition is annotated as non-mutating.
// Legacy-shaped tools carry no annotations and always report false.
func (d ToolDefinition) ReadOnly() bool {
	return d.Schema != nil && d.Schema.Annotations != nil && d.Schema.Annotations.ReadOnlyHint
}
