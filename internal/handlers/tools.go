package handlers

import (
	"net/http"

	"github.com/bobmcallan/loom-portal/internal/common"
	"github.com/bobmcallan/loom-portal/internal/registry"
)

// ToolsHandler exposes the current tool registry contents for diagnostics.
type ToolsHandler struct {
	registry *registry.Registry
	logger   *common.Logger
}

// NewToolsHandler creates a new tools listing handler.
func NewToolsHandler(reg *registry.Registry, logger *common.Logger) *ToolsHandler {
	return &ToolsHandler{registry: reg, logger: logger}
}

// ServeHTTP handles GET /api/tools.
func (h *ToolsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	type toolInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		ReadOnly    bool   `json:"readOnly"`
	}

	names := h.registry.List()
	infos := make([]toolInfo, 0, len(names))
	for _, name := range names {
		def, ok := h.registry.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, toolInfo{
			Name:        def.Name,
			Description: def.Description,
			ReadOnly:    def.ReadOnly(),
		})
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"count": len(infos),
		"tools": infos,
	})
}
