// Package registry owns the dynamic WebMCP tool registry: the name→definition
// mapping, the mutable caller context injected into invocations, and the
// mirroring of registry state into an optional host capability surface.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/bobmcallan/loom-portal/internal/common"
)

// ToolInvoker is the wrapped callable handed to a capability surface. It
// resolves the stored definition and the current caller context at call time,
// so a surface-side handle stays valid across re-registration and context
// changes.
type ToolInvoker func(ctx context.Context, args map[string]any) (any, error)

// CapabilitySurface is an externally-provided API that mirrors registered
// tools for invocation outside this process.
type CapabilitySurface interface {
	RegisterTool(def ToolDefinition, invoke ToolInvoker) error
	UnregisterTool(name string)
}

// SurfaceProvider resolves the capability surface at the moment of each
// registry operation. A nil provider, or a provider returning nil, means no
// surface is reachable.
type SurfaceProvider func() CapabilitySurface

// Registry holds registered tool definitions and the caller context.
// All operations are safe for concurrent use; none of them fail for valid
// inputs — errors surface only from invoked tool bodies.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]ToolDefinition
	auth     AuthContext
	provider SurfaceProvider
	logger   *common.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithSurfaceProvider injects the capability surface provider. Without it the
// registry operates purely locally.
func WithSurfaceProvider(p SurfaceProvider) Option {
	return func(r *Registry) { r.provider = p }
}

// New creates an empty registry. A nil logger falls back to a silent one.
func New(logger *common.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	r := &Registry{
		tools:  make(map[string]ToolDefinition),
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// surface resolves the capability surface for the current operation.
func (r *Registry) surface() CapabilitySurface {
	if r.provider == nil {
		return nil
	}
	return r.provider()
}

// Register inserts or overwrites the definition under def.Name. If a
// capability surface is reachable, a live-context wrapper is forwarded to it;
// a surface-side failure is logged and never blocks local registration.
func (r *Registry) Register(def ToolDefinition) {
	r.mu.Lock()
	_, replaced := r.tools[def.Name]
	r.tools[def.Name] = def
	r.mu.Unlock()

	r.logger.Debug().
		Str("tool", def.Name).
		Bool("replaced", replaced).
		Msg("tool registered")

	if s := r.surface(); s != nil {
		name := def.Name
		invoke := func(ctx context.Context, args map[string]any) (any, error) {
			return r.Invoke(ctx, name, args)
		}
		if err := s.RegisterTool(def, invoke); err != nil {
			r.logger.Warn().
				Str("tool", def.Name).
				Str("error", err.Error()).
				Msg("surface registration failed, tool remains registered locally")
		}
	}
}

// Unregister removes the entry for name. Unknown names are a no-op locally,
// but the removal is still forwarded to the surface so both sides converge.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	_, existed := r.tools[name]
	delete(r.tools, name)
	r.mu.Unlock()

	if existed {
		r.logger.Debug().Str("tool", name).Msg("tool unregistered")
	}

	if s := r.surface(); s != nil {
		s.UnregisterTool(name)
	}
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.tools[name]
	return def, ok
}

// List returns the names of all registered tools in unspecified order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Size returns the number of registered tools.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Clear unregisters every currently known tool, forwarding one surface-side
// removal per name.
func (r *Registry) Clear() {
	for _, name := range r.List() {
		r.Unregister(name)
	}
}

// IsSupported reports whether a capability surface is currently reachable.
// Purely advisory: registration and invocation work locally regardless.
func (r *Registry) IsSupported() bool {
	return r.surface() != nil
}

// SetAuthContext replaces the caller context record as a whole. There is no
// merge; pass a zero AuthContext to clear it.
func (r *Registry) SetAuthContext(auth AuthContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auth = auth.clone()
}

// GetAuthContext returns a copy of the caller context. Mutating the returned
// value never affects registry state.
func (r *Registry) GetAuthContext() AuthContext {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.auth.clone()
}

// Invoke runs the named tool with the caller context as it stands when the
// invocation begins. A context update during a call does not affect that
// in-flight call, but is observed by every call starting afterwards.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	def, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("tool not registered: %s", name)
	}
	auth := r.GetAuthContext()
	return def.Body(WithCallerContext(ctx, auth), args, auth)
}
