package main

import (
	"log"
	"net/http"

	httphandlers "horizon/internal/interfaces/http"
	"horizon/internal/shared/config"
	"horizon/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", httphandlers.HandleHealth)

	// Public auth routes, rate limited per client IP
	authRoute := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, cfg.RateLimit.TrustedProxies...)
		authRoute = func(h http.HandlerFunc) http.Handler { return limiter.Middleware(h) }
	}
	mux.Handle("POST /api/auth/sign-up", authRoute(deps.AuthHandler.HandleSignUp))
	mux.Handle("POST /api/auth/sign-in", authRoute(deps.AuthHandler.HandleSignIn))
	mux.HandleFunc("POST /api/auth/logout", deps.AuthHandler.HandleLogout)

	// Protected routes
	authMiddleware := middleware.Auth(deps.Sessions)
	protect := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMiddleware(h))
	}

	protect("GET /api/users/me", deps.UserHandler.HandleMe)

	protect("POST /api/banks/link-token", deps.BankHandler.HandleLinkToken)
	protect("POST /api/banks/exchange", deps.BankHandler.HandleExchange)
	protect("GET /api/banks", deps.BankHandler.HandleListBanks)

	protect("GET /api/accounts", deps.AccountHandler.HandleListAccounts)
	protect("GET /api/accounts/{id}", deps.AccountHandler.HandleGetAccount)

	protect("POST /api/transfers", deps.TransferHandler.HandleCreate)

	protect("POST /api/notifications/devices", deps.NotificationHandler.HandleRegisterDevice)
	protect("GET /api/notifications", deps.NotificationHandler.HandleList)
	protect("POST /api/notifications/{id}/opened", deps.NotificationHandler.HandleMarkOpened)

	protect("GET /api/preferences/{key}", deps.PreferenceHandler.HandleGet)
	protect("PUT /api/preferences/{key}", deps.PreferenceHandler.HandleSet)

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux))
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName, middleware.Tracing(handler))
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureCookies(handler))
		log.Println("TLS security middleware enabled (HSTS + SecureCookies)")
	}

	return handler
}
