package notification

import (
	"context"
	"log"
)

// Service contains the business logic for notification operations
type Service struct {
	repo      Repository
	messenger Messenger
}

// NewService creates a new notification service. messenger may be nil, in
// which case notifications are only stored.
func NewService(repo Repository, messenger Messenger) *Service {
	return &Service{repo: repo, messenger: messenger}
}

// RegisterDevice registers a device token for the authenticated user.
// A token already registered to another user is reassigned.
func (s *Service) RegisterDevice(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpsertDeviceToken(ctx, params)
}

// ListNotifications returns paginated notifications for a user
func (s *Service) ListNotifications(ctx context.Context, userID string, page, perPage int) ([]*Notification, int, error) {
	if userID == "" {
		return nil, 0, ErrUserRequired
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return s.repo.ListByUserID(ctx, userID, page, perPage)
}

// MarkNotificationOpened marks a notification as opened by its owner
func (s *Service) MarkNotificationOpened(ctx context.Context, notificationID, userID string) error {
	if notificationID == "" {
		return ErrNotificationNotFound
	}
	if userID == "" {
		return ErrUserRequired
	}
	return s.repo.MarkOpened(ctx, notificationID, userID)
}

// SendToUser pushes a notification to every active device of a user and
// stores it in their inbox. Delivery failures are logged, not returned.
func (s *Service) SendToUser(ctx context.Context, userID, title, body, category string, data map[string]string) error {
	if userID == "" {
		return ErrUserRequired
	}
	if !IsValidCategory(category) {
		return ErrInvalidCategory
	}

	if data == nil {
		data = make(map[string]string)
	}
	if _, ok := data["route"]; !ok {
		data["route"] = category
	}

	if s.messenger != nil {
		tokens, err := s.repo.GetActiveTokensByUserID(ctx, userID)
		if err != nil {
			return err
		}

		if len(tokens) == 0 {
			log.Printf("No active device tokens for user %s", userID)
		} else {
			tokenStrings := make([]string, len(tokens))
			for i, t := range tokens {
				tokenStrings[i] = t.Token
			}
			if err := s.messenger.SendMulticast(ctx, tokenStrings, title, body, data); err != nil {
				log.Printf("Error sending notification to user %s: %v", userID, err)
			}
		}
	}

	_, err := s.repo.CreateNotification(ctx, CreateNotificationParams{
		UserID:   userID,
		Title:    title,
		Message:  body,
		Category: category,
		Data:     data,
	})
	if err != nil {
		log.Printf("Error storing notification for user %s: %v", userID, err)
	}

	return nil
}
