// Package http exposes the export bridge over a local REST API.
//
// Endpoints:
//   - Health: /health
//   - Services: /services, /services/discover
//   - Channels: /channels/:channel/invoke
//   - Picker: /picker/pending, /picker/complete
//   - Grants: /grants (GET lists, DELETE ?uri= revokes)
//   - Metrics: /metrics
//
// Method calls always answer 200 with a Reply body; error codes travel
// inside the reply. Only routing and malformed requests use HTTP status.
//
// Example Usage:
//
//	handlers := http.NewHandlers(registry, picker, grantStore, metrics, logger)
//	handlers.Register(router)
package http
