// Package docref provides the opaque handles used to address documents.
//
// A handle is a string of one of two shapes:
//   - tree:     content://{authority}/tree/{treeDocID}
//   - document: content://{authority}/tree/{treeDocID}/document/{docID}
//
// Document IDs are provider-defined and percent-encoded inside a handle.
// Callers must not assume anything about an ID beyond equality; the only
// supported derivations are the tree root document and child documents
// reached through the same tree.
package docref
