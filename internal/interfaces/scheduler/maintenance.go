package scheduler

import (
	"context"
	"fmt"
	"log"
)

// SessionPurger deletes sessions whose expiry has passed.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// MaintenanceJobs returns a provider yielding the periodic cleanup jobs.
// A nil purger yields no jobs.
func MaintenanceJobs(purger SessionPurger) JobProvider {
	return func(ctx context.Context) ([]Job, error) {
		if purger == nil {
			return nil, nil
		}
		return []Job{JobFunc{
			Name: "purge expired sessions",
			Fn: func(ctx context.Context) error {
				n, err := purger.PurgeExpiredSessions(ctx)
				if err != nil {
					return fmt.Errorf("purge sessions: %w", err)
				}
				log.Printf("Purged %d expired session(s)", n)
				return nil
			},
		}}, nil
	}
}
