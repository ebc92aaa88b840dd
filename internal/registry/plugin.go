package registry

// ToolDeclaration is a plugin's manifest view of one tool: metadata plus one
// of the two declaration shapes, without the implementing callable.
type ToolDeclaration struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Params      map[string]ParamSpec `json:"parameters,omitempty"`
	InputSchema *InputSchema         `json:"inputSchema,omitempty"`
	Annotations *ToolAnnotations     `json:"annotations,omitempty"`
}

// PluginManifest is the declarative part of a plugin relevant to this
// registry. A manifest with no WebMCP tools is a no-op here.
type PluginManifest struct {
	WebMCPTools []ToolDeclaration `json:"webmcpTools,omitempty"`
}

// Plugin is the collaborator contract for manifest-driven registration.
// WebMCPHandlers may return nil when the plugin implements none of its
// declared tools.
type Plugin interface {
	Manifest() PluginManifest
	WebMCPHandlers() map[string]ToolFunc
}

// StaticPlugin is a Plugin built from literals, used for in-process tool
// packs and tests.
type StaticPlugin struct {
	Tools    []ToolDeclaration
	Handlers map[string]ToolFunc
}

func (p *StaticPlugin) Manifest() PluginManifest {
	return PluginManifest{WebMCPTools: p.Tools}
}

func (p *StaticPlugin) WebMCPHandlers() map[string]ToolFunc {
	return p.Handlers
}

// resolvedTool pairs a declaration with the handler that implements it.
type resolvedTool struct {
	decl ToolDeclaration
	fn   ToolFunc
}

// resolveDeclared filters a plugin's declarations down to those with a
// matching handler. A declared tool without a handler is skipped silently:
// manifests may declare capabilities whose implementation is conditional.
func resolveDeclared(p Plugin) []resolvedTool {
	manifest := p.Manifest()
	if len(manifest.WebMCPTools) == 0 {
		return nil
	}
	handlers := p.WebMCPHandlers()
	if handlers == nil {
		return nil
	}

	resolved := make([]resolvedTool, 0, len(manifest.WebMCPTools))
	for _, decl := range manifest.WebMCPTools {
		fn, ok := handlers[decl.Name]
		if !ok || fn == nil {
			continue
		}
		resolved = append(resolved, resolvedTool{decl: decl, fn: fn})
	}
	return resolved
}

// definitionFromDeclaration builds a ToolDefinition from manifest metadata
// plus the resolved callable, preserving whichever declaration shape the
// manifest used. A declaration carrying neither shape becomes a legacy tool
// with no parameters.
func definitionFromDeclaration(decl ToolDeclaration, fn ToolFunc) ToolDefinition {
	if decl.InputSchema != nil {
		return NewSchemaTool(decl.Name, decl.Description, *decl.InputSchema, decl.Annotations, fn)
	}
	return NewLegacyTool(decl.Name, decl.Description, decl.Params, fn)
}

// RegisterPlugin registers every declared tool that has a matching handler in
// the plugin's handler map. Plugins with empty manifests, and declared tools
// without handlers, are skipped without error.
func (r *Registry) RegisterPlugin(p Plugin) {
	if p == nil {
		return
	}
	resolved := resolveDeclared(p)
	for _, rt := range resolved {
		r.Register(definitionFromDeclaration(rt.decl, rt.fn))
	}
	if len(resolved) > 0 {
		r.logger.Info().
			Int("tools", len(resolved)).
			Msg("plugin tools registered")
	}
}

// UnregisterPlugin removes every name in the plugin's current manifest,
// whether or not it has a handler. Note the deliberate looseness: if another
// source registered a tool under a name this manifest also declares, that
// tool is removed too — the registry tracks no per-plugin ownership.
func (r *Registry) UnregisterPlugin(p Plugin) {
	if p == nil {
		return
	}
	for _, decl := range p.Manifest().WebMCPTools {
		r.Unregister(decl.Name)
	}
}
