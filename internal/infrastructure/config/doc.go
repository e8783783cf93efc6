// Package config provides 12-factor configuration management for the export bridge.
//
// Values start from Default, are overlaid by the TOML file named in
// EXPORTBRIDGE_CONFIG when set, and finally by environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Channel: Method channel name
//   - Documents: Provider backend, authority and storage volume
//   - Grants: Location of the persisted grant table
//   - Picker: Chooser mode and initial location
//   - Writer: Worker count and payload cap
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Bridge listening on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
package config
