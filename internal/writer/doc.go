// Package writer writes byte payloads as new documents inside a granted
// directory tree.
//
// A write resolves its target container first:
//   - no subdirectory requested: the tree's root document
//   - the root's own name equals the subdirectory: the root
//   - an existing child directory with that exact name: that child
//   - otherwise a new child directory, or the root if creating it fails
//
// It then creates a new document in the container and streams the payload
// into it. Writes never overwrite; name collisions are settled by the
// provider.
package writer
