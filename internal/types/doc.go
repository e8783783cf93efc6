// Package types provides shared data structures for the export bridge.
//
// Channel Types:
//   - MethodCall: a method name plus JSON-encoded arguments
//   - MethodResult: the callback receiving one terminal answer
//   - Reply, ReplyError: serialized answers
//
// Discovery Types:
//   - Service, Method, Parameter: channel descriptions
//
// Error codes (CodePending, CodeInvalidArgs, ...) are the only failure
// vocabulary callers see.
package types
