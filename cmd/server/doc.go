// Package main is the entry point for the export bridge server.
//
// The server hosts the export method channel over a local REST API so a
// mobile shell can pick a directory tree once and write files into it
// afterwards.
//
// Architecture:
//
//	App (method calls) → Bridge HTTP API → Export channel → Picker / Writer
//	                                                      → Grant table (bbolt)
//	                                                      → Document provider
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional TOML file named by EXPORTBRIDGE_CONFIG
//   - CLI flags (override both)
//
// Usage:
//
//	# Serve a local storage volume, picks completed via /picker/complete
//	./server -port 8000 -documents local -picker manual
//
//	# In-memory documents, every pick grants the volume root
//	./server -documents memory -picker static
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
