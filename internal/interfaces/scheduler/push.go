package scheduler

import (
	"context"
	"fmt"
	"maps"
)

// Notifier delivers a push notification to every device of a user.
type Notifier interface {
	SendToUser(ctx context.Context, userID, title, body, category string, data map[string]string) error
}

// AsyncNotifier queues deliveries on a worker pool so callers return before
// FCM answers. It satisfies the same Notifier contract as the wrapped value.
type AsyncNotifier struct {
	next Notifier
	pool *WorkerPool
}

func NewAsyncNotifier(next Notifier, pool *WorkerPool) *AsyncNotifier {
	return &AsyncNotifier{next: next, pool: pool}
}

// SendToUser returns an error only when the job could not be queued.
func (n *AsyncNotifier) SendToUser(ctx context.Context, userID, title, body, category string, data map[string]string) error {
	data = maps.Clone(data)
	job := JobFunc{
		Name: fmt.Sprintf("push %q to user %s", category, userID),
		Fn: func(ctx context.Context) error {
			return n.next.SendToUser(ctx, userID, title, body, category, data)
		},
	}
	if err := n.pool.Submit(job); err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}
	return nil
}
