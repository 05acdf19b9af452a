package firebase

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	"horizon/internal/domain/notification"
)

const fcmBatchLimit = 500

// TokenDeactivator marks an invalid FCM token as inactive.
type TokenDeactivator func(ctx context.Context, token string) error

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Messenger implements notification.Messenger using Firebase Cloud Messaging
type Messenger struct {
	sender      multicastSender
	deactivator TokenDeactivator
	isInvalid   func(error) bool
}

var _ notification.Messenger = (*Messenger)(nil)

// NewMessenger returns an FCM messenger. deactivator is called for
// unregistered or malformed tokens and may be nil.
func NewMessenger(ctx context.Context, app *firebase.App, deactivator TokenDeactivator) (*Messenger, error) {
	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging client: %w", err)
	}
	return &Messenger{sender: msgClient, deactivator: deactivator, isInvalid: isInvalidTokenError}, nil
}

func isInvalidTokenError(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
}

// SendMulticast sends a notification to many tokens in batches of 500.
func (m *Messenger) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	var totalSuccess, totalFailure int
	for _, batch := range chunkTokens(tokens, fcmBatchLimit) {
		msg := &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		}

		resp, err := m.sender.SendEachForMulticast(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to send FCM multicast: %w", err)
		}

		totalSuccess += resp.SuccessCount
		totalFailure += resp.FailureCount
		if resp.FailureCount > 0 {
			m.handleFailures(ctx, batch, resp)
		}
	}

	log.Printf("FCM multicast: %d success, %d failure", totalSuccess, totalFailure)
	return nil
}

func (m *Messenger) handleFailures(ctx context.Context, tokens []string, resp *messaging.BatchResponse) {
	for i, sendResp := range resp.Responses {
		if sendResp == nil || sendResp.Error == nil || i >= len(tokens) {
			continue
		}
		if !m.isInvalid(sendResp.Error) {
			log.Printf("FCM send error at index %d: %v", i, sendResp.Error)
			continue
		}
		log.Printf("Invalid FCM token %s (deactivating): %v", maskToken(tokens[i]), sendResp.Error)
		if m.deactivator == nil {
			continue
		}
		if err := m.deactivator(ctx, tokens[i]); err != nil {
			log.Printf("Failed to deactivate FCM token %s: %v", maskToken(tokens[i]), err)
		}
	}
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func chunkTokens(tokens []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(tokens); i += size {
		end := min(i+size, len(tokens))
		chunks = append(chunks, tokens[i:end])
	}
	return chunks
}
