package registry

import "github.com/bobmcallan/loom-portal/internal/bus"

// Event names published by the plugin host.
const (
	EventPluginLoaded   = "plugin:loaded"
	EventPluginUnloaded = "plugin:unloaded"
)

// BindPluginLifecycle subscribes the registry to plugin load/unload events.
// Payloads that are not Plugins are ignored. Repeated loads of the same
// plugin are idempotent only in the overwrite sense: the last registration of
// a given name wins. Unsubscribing is the bus owner's concern.
func BindPluginLifecycle(r *Registry, b *bus.Bus) {
	b.On(EventPluginLoaded, func(payload any) {
		if p, ok := payload.(Plugin); ok {
			r.RegisterPlugin(p)
		}
	})
	b.On(EventPluginUnloaded, func(payload any) {
		if p, ok := payload.(Plugin); ok {
			r.UnregisterPlugin(p)
		}
	})
}
