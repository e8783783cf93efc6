// Package documents provides the document subsystem the export bridge writes
// through.
//
// This package is organized into:
//   - provider: the Provider contract and lazy child cursors
//   - resolver: ContentResolver, which routes handles to providers by
//     authority and enforces URI permission grants
//   - local: a Provider backed by directories on disk (named volumes)
//   - memory: an in-process Provider
//   - naming: the display-name policy shared by providers
//
// Providers only ever see document IDs. Handles (see docref) are resolved
// by ContentResolver before a provider is called.
package documents
