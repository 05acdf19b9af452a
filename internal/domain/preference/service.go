package preference

import (
	"context"
	"log"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the flag, false when unset or unreadable.
func (s *Service) Get(ctx context.Context, userID, key string) (Preference, error) {
	if userID == "" {
		return Preference{}, ErrUserRequired
	}
	if !IsKnownKey(key) {
		return Preference{}, ErrUnknownKey
	}
	value, ok, err := s.repo.Get(ctx, userID, key)
	if err != nil {
		log.Printf("Preference %s for user %s unavailable: %v", key, userID, err)
		return Preference{Key: key}, nil
	}
	if !ok {
		return Preference{Key: key}, nil
	}
	return Preference{Key: key, Value: value}, nil
}

func (s *Service) Set(ctx context.Context, userID, key string, value bool) (Preference, error) {
	if userID == "" {
		return Preference{}, ErrUserRequired
	}
	if !IsKnownKey(key) {
		return Preference{}, ErrUnknownKey
	}
	if err := s.repo.Set(ctx, userID, key, value); err != nil {
		return Preference{}, err
	}
	return Preference{Key: key, Value: value}, nil
}
