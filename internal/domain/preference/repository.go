package preference

import "context"

// Repository defines the interface for preference data access
type Repository interface {
	// Get returns the stored value and whether one exists.
	Get(ctx context.Context, userID, key string) (bool, bool, error)
	Set(ctx context.Context, userID, key string, value bool) error
}
