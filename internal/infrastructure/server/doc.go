// Package server wires the export bridge together and hosts it over HTTP.
//
// Components builds the shared stack: grant table, document provider and
// resolver, picker, writer, worker pool, export channel and channel
// registry. Server adds the gin router and middleware on top. The CLI
// reuses Components with a terminal picker.
//
// Server Lifecycle:
//  1. Load configuration from file and environment
//  2. Initialize logger (production or development)
//  3. Open the grant table and the document provider
//  4. Register the export channel
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server
//  7. Graceful shutdown: drain HTTP, wait for writes, close grants
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Run()
package server
