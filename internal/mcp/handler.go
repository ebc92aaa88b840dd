package mcp

import (
	"net/http"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/loom-portal/internal/common"
	"github.com/bobmcallan/loom-portal/internal/registry"
)

// Handler is the HTTP handler for the MCP endpoint. It wraps mcp-go's
// StreamableHTTPServer and delegates to it, lifting caller identity from the
// request into the registry's auth context first.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	registry   *registry.Registry
	logger     *common.Logger
}

// NewHandler creates the MCP endpoint handler for an already-populated server.
func NewHandler(reg *registry.Registry, srv *mcpserver.MCPServer, logger *common.Logger) *Handler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	streamable := mcpserver.NewStreamableHTTPServer(srv,
		mcpserver.WithStateLess(true),
	)
	return &Handler{
		streamable: streamable,
		registry:   reg,
		logger:     logger,
	}
}

// ServeHTTP replaces the registry's caller context with whatever identity the
// request carries, then delegates to the streamable MCP server. The portal
// does not validate the token — it only carries it through to outbound
// daemon requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.registry.SetAuthContext(callerContextFromRequest(r))
	h.streamable.ServeHTTP(w, r)
}

// callerContextFromRequest builds an AuthContext from the Authorization
// bearer token and the optional X-Loom-* identity headers. Requests with no
// identity material yield a zero context, clearing any previous one.
func callerContextFromRequest(r *http.Request) registry.AuthContext {
	var auth registry.AuthContext

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		auth.Token = strings.TrimPrefix(header, "Bearer ")
	}
	auth.UserID = r.Header.Get("X-Loom-User")
	auth.SessionID = r.Header.Get("X-Loom-Session")
	if roles := r.Header.Get("X-Loom-Roles"); roles != "" {
		parts := strings.Split(roles, ",")
		auth.Roles = make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				auth.Roles = append(auth.Roles, p)
			}
		}
	}

	return auth
}
