package engine

import (
	"luabreak/internal/services"
	"luabreak/pkg/breaktypes"
)

// InitializeServices registers and initializes the luabreak service set.
// Call once at startup, before the first session is created.
func InitializeServices() error {
	registry := services.GetGlobalRegistry()

	for _, svc := range []breaktypes.Service{
		services.NewConfigService(),
		services.NewInvokerService(),
		services.NewBreakpointProxyService(),
		services.NewDebugModeService(),
	} {
		if err := registry.RegisterService(svc); err != nil {
			return err
		}
	}

	return registry.InitializeAll()
}
