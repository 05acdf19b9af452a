package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"horizon/internal/shared/config"
	"horizon/internal/shared/middleware"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Handler      http.Handler
	Addr         string
	TLSEnabled   bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
	AllowedHosts []string
}

// NewServerConfigFromConfig creates ServerConfig from application config.
func NewServerConfigFromConfig(handler http.Handler, cfg *config.Config) ServerConfig {
	return ServerConfig{
		Handler:      handler,
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		TLSEnabled:   cfg.TLS.Enabled,
		CertPath:     cfg.TLS.CertPath,
		KeyPath:      cfg.TLS.KeyPath,
		RedirectHTTP: cfg.TLS.RedirectHTTP,
		AllowedHosts: cfg.Server.AllowedHosts,
	}
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// StartServers starts the API server and, under TLS with redirects enabled,
// a plain HTTP server on :80 that redirects to HTTPS. The redirect server is
// nil when not started.
func StartServers(scfg ServerConfig) (*http.Server, *http.Server) {
	srv := newHTTPServer(scfg.Addr, scfg.Handler)

	var redirectSrv *http.Server
	if scfg.TLSEnabled && scfg.RedirectHTTP {
		redirectSrv = createRedirectServer(scfg.AllowedHosts)
		go serve("HTTP redirect", redirectSrv, redirectSrv.ListenAndServe, false)
	}

	if scfg.TLSEnabled {
		go serve("HTTPS", srv, func() error { return srv.ListenAndServeTLS(scfg.CertPath, scfg.KeyPath) }, true)
	} else {
		go serve("HTTP", srv, srv.ListenAndServe, true)
	}
	return srv, redirectSrv
}

func serve(name string, srv *http.Server, listen func() error, fatal bool) {
	log.Printf("%s server starting on %s", name, srv.Addr)
	err := listen()
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return
	}
	if fatal {
		log.Fatalf("%s server error: %v", name, err)
	}
	log.Printf("%s server error: %v", name, err)
}

// GracefulShutdown drains the main and redirect servers.
func GracefulShutdown(srv, redirectSrv *http.Server, timeout time.Duration) {
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if redirectSrv != nil {
		if err := redirectSrv.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down HTTP redirect server: %v", err)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down main server: %v", err)
	}

	log.Println("Server stopped")
}

// createRedirectServer answers every request with a 301 to the HTTPS URL,
// refusing hosts outside the allow list so it cannot act as an open redirect.
func createRedirectServer(allowedHosts []string) *http.Server {
	redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Header.Get("X-Forwarded-Host")
		if host == "" {
			host = r.Host
		}
		if !middleware.IsHostAllowed(host, allowedHosts) {
			http.Error(w, "Invalid host", http.StatusBadRequest)
			return
		}

		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if strings.Contains(host, ":") {
			host = "[" + strings.Trim(host, "[]") + "]"
		}
		target := "https://" + host + r.RequestURI
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
	return newHTTPServer(":80", redirect)
}
