package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"horizon/internal/domain/user"
	httphandlers "horizon/internal/interfaces/http"
	"horizon/internal/shared/config"
)

func TestRedirectServer(t *testing.T) {
	srv := createRedirectServer([]string{"api.example.com", "::1"})

	tests := []struct {
		name         string
		host         string
		wantStatus   int
		wantLocation string
	}{
		{"allowed host", "api.example.com", http.StatusMovedPermanently, "https://api.example.com/api/banks?x=1"},
		{"allowed host with port", "api.example.com:80", http.StatusMovedPermanently, "https://api.example.com/api/banks?x=1"},
		{"ipv6 loopback", "[::1]:80", http.StatusMovedPermanently, "https://[::1]/api/banks?x=1"},
		{"unknown host", "evil.example.com", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/banks?x=1", nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}

func TestSetupRoutes_ProtectsAPI(t *testing.T) {
	users := user.NewService(nil, nil, nil)
	deps := &Dependencies{
		AuthHandler:         httphandlers.NewAuthHandler(users),
		UserHandler:         httphandlers.NewUserHandler(users),
		BankHandler:         httphandlers.NewBankHandler(nil, users),
		AccountHandler:      httphandlers.NewAccountHandler(nil, 10),
		TransferHandler:     httphandlers.NewTransferHandler(nil),
		NotificationHandler: httphandlers.NewNotificationHandler(nil),
		PreferenceHandler:   httphandlers.NewPreferenceHandler(nil),
		Sessions:            users,
	}
	handler := SetupRoutes(deps, &config.Config{})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/users/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/accounts", http.StatusUnauthorized},
		{http.MethodGet, "/api/accounts/bank-1", http.StatusUnauthorized},
		{http.MethodPost, "/api/transfers", http.StatusUnauthorized},
		{http.MethodPut, "/api/preferences/hasSeenDemoNotification", http.StatusUnauthorized},
		{http.MethodDelete, "/api/banks", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}
