// Package bridge implements the export method channel.
//
// The channel answers two methods:
//   - pickDirectory() -> tree URI or null
//   - writeFile(treeUri, fileName, mimeType, bytes, subDir?) -> document URI
//
// Unknown methods are answered with NotImplemented. Failures are reported
// as (code, message) pairs using the codes in package types. writeFile
// runs on a bounded worker group; pickDirectory completes whenever the
// chooser reports back.
package bridge
