package types

import "encoding/json"

// Error codes surfaced to channel callers
const (
	CodePending      = "PENDING"
	CodeInvalidArgs  = "INVALID_ARGS"
	CodeCreateFailed = "CREATE_FAILED"
	CodeWriteFailed  = "WRITE_FAILED"
	CodeUnavailable  = "UNAVAILABLE"
	CodeGrantFailed  = "GRANT_FAILED"
)

// MethodCall is a single invocation on a channel
type MethodCall struct {
	Method    string          `json:"method" binding:"required"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// MethodResult receives exactly one terminal answer for a MethodCall.
type MethodResult interface {
	Success(value interface{})
	Error(code, message string, details interface{})
	NotImplemented()
}

// Reply is the serialized form of a MethodResult answer
type Reply struct {
	Success        bool        `json:"success"`
	Value          interface{} `json:"value"`
	Error          *ReplyError `json:"error,omitempty"`
	NotImplemented bool        `json:"not_implemented,omitempty"`
}

// ReplyError carries a failed call's code and message
type ReplyError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
