// Package preference stores per-user client flags.
package preference

import "errors"

// KeyHasSeenDemoNotification records that the demo notification was shown.
const KeyHasSeenDemoNotification = "hasSeenDemoNotification"

var (
	ErrUnknownKey   = errors.New("unknown preference key")
	ErrUserRequired = errors.New("user ID is required")
)

var knownKeys = map[string]struct{}{
	KeyHasSeenDemoNotification: {},
}

// IsKnownKey reports whether key is a supported preference.
func IsKnownKey(key string) bool {
	_, ok := knownKeys[key]
	return ok
}

type Preference struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}
