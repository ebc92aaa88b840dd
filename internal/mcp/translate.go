package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/loom-portal/internal/registry"
)

// buildTool converts a registry ToolDefinition into an mcp.Tool, handling
// both declaration shapes exhaustively. Schema-aligned definitions pass their
// input schema through verbatim; legacy parameter maps are rebuilt with the
// per-property tool options.
func buildTool(def registry.ToolDefinition) (mcp.Tool, error) {
	switch {
	case def.Schema != nil:
		return buildSchemaTool(def)
	case def.Legacy != nil:
		return buildLegacyTool(def), nil
	default:
		// A definition with no declared parameters at all is valid; expose it
		// with an empty object schema.
		return mcp.NewTool(def.Name, mcp.WithDescription(def.Description)), nil
	}
}

// buildSchemaTool passes the JSON-Schema-shaped declaration straight through.
func buildSchemaTool(def registry.ToolDefinition) (mcp.Tool, error) {
	schema := def.Schema.InputSchema
	if schema.Type == "" {
		schema.Type = "object"
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to marshal input schema for %s: %w", def.Name, err)
	}

	tool := mcp.NewToolWithRawSchema(def.Name, def.Description, raw)
	if ann := def.Schema.Annotations; ann != nil && ann.ReadOnlyHint {
		tool.Annotations = mcp.ToolAnnotation{ReadOnlyHint: mcp.ToBoolPtr(true)}
	}
	return tool, nil
}

// buildLegacyTool rebuilds the ad-hoc parameter map as tool options.
func buildLegacyTool(def registry.ToolDefinition) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(def.Description)}
	for name, spec := range def.Legacy.Params {
		opts = append(opts, buildParamOption(name, spec))
	}
	return mcp.NewTool(def.Name, opts...)
}

// buildParamOption maps one legacy ParamSpec to the appropriate mcp-go option.
func buildParamOption(name string, spec registry.ParamSpec) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if spec.Description != "" {
		opts = append(opts, mcp.Description(spec.Description))
	}
	if spec.Required {
		opts = append(opts, mcp.Required())
	}
	if len(spec.Enum) > 0 {
		opts = append(opts, mcp.Enum(spec.Enum...))
	}

	switch spec.Type {
	case "number", "integer":
		if v, ok := toFloat(spec.Default); ok {
			opts = append(opts, mcp.DefaultNumber(v))
		}
		return mcp.WithNumber(name, opts...)
	case "boolean":
		if v, ok := spec.Default.(bool); ok {
			opts = append(opts, mcp.DefaultBool(v))
		}
		return mcp.WithBoolean(name, opts...)
	case "array":
		opts = append([]mcp.PropertyOption{mcp.WithStringItems()}, opts...)
		return mcp.WithArray(name, opts...)
	default:
		// string, object, or unknown — all passed as string
		if v, ok := spec.Default.(string); ok {
			opts = append(opts, mcp.DefaultString(v))
		}
		return mcp.WithString(name, opts...)
	}
}

// toFloat normalizes the numeric types a TOML or JSON default can arrive as.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
