// Package scheduler runs background work for the API: push delivery off the
// request path and periodic maintenance such as purging expired sessions.
package scheduler

import "context"

// Job is a unit of work executed by the worker pool.
type Job interface {
	Execute(ctx context.Context) error
	// Description is used for logs and span attributes.
	Description() string
}

// JobFunc adapts a plain function to Job.
type JobFunc struct {
	Name string
	Fn   func(ctx context.Context) error
}

func (j JobFunc) Execute(ctx context.Context) error { return j.Fn(ctx) }
func (j JobFunc) Description() string               { return j.Name }
