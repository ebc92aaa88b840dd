package registry

import "context"

// AuthContext is the caller context injected into tool invocations. It is a
// single mutable record owned by the registry; callers always receive copies.
type AuthContext struct {
	UserID    string         `json:"userId,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Roles     []string       `json:"roles,omitempty"`
	Token     string         `json:"token,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// clone returns a copy whose roles slice and extra map are independent of the
// receiver, so mutation of a returned context never reaches registry state.
func (a AuthContext) clone() AuthContext {
	out := a
	if a.Roles != nil {
		out.Roles = make([]string, len(a.Roles))
		copy(out.Roles, a.Roles)
	}
	if a.Extra != nil {
		out.Extra = make(map[string]any, len(a.Extra))
		for k, v := range a.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// callerContextKey is the context key for the per-invocation caller context.
type callerContextKey struct{}

// WithCallerContext returns a new context with the given AuthContext attached.
// The registry attaches the live caller context at the moment an invocation
// begins.
func WithCallerContext(ctx context.Context, auth AuthContext) context.Context {
	return context.WithValue(ctx, callerContextKey{}, auth)
}

// CallerFromContext extracts the AuthContext attached to an invocation, if any.
func CallerFromContext(ctx context.Context) (AuthContext, bool) {
	auth, ok := ctx.Value(callerContextKey{}).(AuthContext)
	return auth, ok
}
