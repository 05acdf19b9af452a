package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"horizon/internal/domain/notification"
)

type NotificationService interface {
	RegisterDevice(ctx context.Context, params notification.CreateDeviceTokenParams) (*notification.DeviceToken, error)
	ListNotifications(ctx context.Context, userID string, page, perPage int) ([]*notification.Notification, int, error)
	MarkNotificationOpened(ctx context.Context, notificationID, userID string) error
}

type NotificationHandler struct {
	notifications NotificationService
}

func NewNotificationHandler(notifications NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type RegisterDeviceRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"deviceType"`
}

type NotificationListResponse struct {
	Notifications []*notification.Notification `json:"notifications"`
	Pagination    PaginationResponse           `json:"pagination"`
}

type PaginationResponse struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// HandleRegisterDevice handles POST /api/notifications/devices
func (h *NotificationHandler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req RegisterDeviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dt, err := h.notifications.RegisterDevice(r.Context(), notification.CreateDeviceTokenParams{
		UserID:     userID,
		Token:      req.Token,
		DeviceType: req.DeviceType,
	})
	if err != nil {
		if errors.Is(err, notification.ErrInvalidToken) || errors.Is(err, notification.ErrInvalidDeviceType) {
			writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error registering device for user %s: %v", userID, err)
		writeErrorMessage(w, http.StatusInternalServerError, "Failed to register device")
		return
	}
	writeJSON(w, http.StatusCreated, dt)
}

// HandleList handles GET /api/notifications
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	items, total, err := h.notifications.ListNotifications(r.Context(), userID, page, perPage)
	if err != nil {
		log.Printf("Error listing notifications for user %s: %v", userID, err)
		writeErrorMessage(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}
	if items == nil {
		items = []*notification.Notification{}
	}

	writeJSON(w, http.StatusOK, NotificationListResponse{
		Notifications: items,
		Pagination: PaginationResponse{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   (total + perPage - 1) / perPage,
		},
	})
}

// HandleMarkOpened handles POST /api/notifications/{id}/opened
func (h *NotificationHandler) HandleMarkOpened(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.notifications.MarkNotificationOpened(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			writeErrorMessage(w, http.StatusNotFound, "Notification not found")
			return
		}
		log.Printf("Error marking notification opened for user %s: %v", userID, err)
		writeErrorMessage(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
