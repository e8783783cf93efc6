// Package service provides the channel registry.
//
// The registry maps channel names to implementations, dispatches method
// calls and describes registered channels for discovery.
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(exportChannel)
//	err := registry.Invoke(ctx, "com.vitomein.loadintel/export", call, result)
package service
