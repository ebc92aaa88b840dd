// Package app wires configuration, the tool registry, the MCP surface, and
// the HTTP handlers into one application object.
package app

import (
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/loom-portal/internal/bus"
	"github.com/bobmcallan/loom-portal/internal/common"
	"github.com/bobmcallan/loom-portal/internal/config"
	"github.com/bobmcallan/loom-portal/internal/handlers"
	"github.com/bobmcallan/loom-portal/internal/mcp"
	"github.com/bobmcallan/loom-portal/internal/registry"
	"github.com/bobmcallan/loom-portal/internal/tools"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Bus      *bus.Bus
	Registry *registry.Registry
	Daemon   *tools.DaemonClient

	// HTTP handlers
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
	ToolsHandler   *handlers.ToolsHandler
	MCPHandler     *mcp.Handler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("RUNNING IN DEV MODE")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	a.initRegistry()
	a.initHandlers()

	logger.Info().
		Int("tools", a.Registry.Size()).
		Msg("application initialization complete")

	return a, nil
}

// initRegistry builds the MCP server, the registry mirrored onto it, the
// daemon client, and registers the reference tool set. The reference tools go
// through the plugin path so they register exactly like plugin-contributed
// tools do.
func (a *App) initRegistry() {
	a.Bus = bus.New()

	mcpSrv := mcpserver.NewMCPServer(
		"loom-portal",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)
	surface := mcp.NewServerSurface(mcpSrv, a.Logger)

	a.Registry = registry.New(a.Logger,
		registry.WithSurfaceProvider(func() registry.CapabilitySurface {
			return surface
		}),
	)

	// The token source reads the registry's caller context at request time, so
	// outbound daemon calls always carry the identity of the current caller.
	a.Daemon = tools.NewDaemonClient(
		a.Config.Daemon.URL,
		a.Config.Daemon.BasePath,
		a.Logger,
		func() string {
			return a.Registry.GetAuthContext().Token
		},
	)

	a.Registry.RegisterPlugin(tools.Plugin(a.Daemon))
	registry.BindPluginLifecycle(a.Registry, a.Bus)

	a.MCPHandler = mcp.NewHandler(a.Registry, mcpSrv, a.Logger)
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.ToolsHandler = handlers.NewToolsHandler(a.Registry, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	return nil
}
