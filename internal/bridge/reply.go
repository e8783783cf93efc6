package bridge

import (
	"sync"

	"github.com/vitomein/loadintel/exportbridge/internal/types"
)

// ReplyResult is a MethodResult that turns the first answer into a
// types.Reply on a channel. Later answers are dropped.
type ReplyResult struct {
	once sync.Once
	ch   chan types.Reply
}

// NewReplyResult creates an unanswered ReplyResult
func NewReplyResult() *ReplyResult {
	return &ReplyResult{ch: make(chan types.Reply, 1)}
}

// Done delivers the reply once the call is answered.
func (r *ReplyResult) Done() <-chan types.Reply {
	return r.ch
}

// Success implements types.MethodResult
func (r *ReplyResult) Success(value interface{}) {
	r.send(types.Reply{Success: true, Value: value})
}

// Error implements types.MethodResult
func (r *ReplyResult) Error(code, message string, details interface{}) {
	r.send(types.Reply{Error: &types.ReplyError{Code: code, Message: message, Details: details}})
}

// NotImplemented implements types.MethodResult
func (r *ReplyResult) NotImplemented() {
	r.send(types.Reply{NotImplemented: true})
}

func (r *ReplyResult) send(reply types.Reply) {
	r.once.Do(func() {
		r.ch <- reply
	})
}
