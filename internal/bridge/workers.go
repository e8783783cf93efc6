package bridge

import (
	"golang.org/x/sync/errgroup"
)

// Workers runs writes off the dispatch path with bounded parallelism.
type Workers struct {
	group errgroup.Group
}

// NewWorkers creates a worker group running at most limit tasks at once.
// A limit below one means one.
func NewWorkers(limit int) *Workers {
	if limit < 1 {
		limit = 1
	}
	w := &Workers{}
	w.group.SetLimit(limit)
	return w
}

// Go schedules fn, blocking while the group is saturated.
func (w *Workers) Go(fn func()) {
	w.group.Go(func() error {
		fn()
		return nil
	})
}

// Wait blocks until every scheduled task has finished.
func (w *Workers) Wait() {
	_ = w.group.Wait()
}
