package http

import (
	"context"
	"net/http"
	"time"

	"horizon/internal/domain/user"
	"horizon/internal/shared/apperror"
	"horizon/internal/shared/middleware"
)

// UserService is the part of user.Service the auth and user handlers use.
type UserService interface {
	SignUp(ctx context.Context, params user.SignUpParams) (*user.User, *user.Session, error)
	SignIn(ctx context.Context, params user.SignInParams) (*user.User, *user.Session, error)
	Logout(ctx context.Context, secret string)
	GetLoggedInUser(ctx context.Context, secret string) *user.User
	GetUserInfo(ctx context.Context, userID string) *user.User
}

type AuthHandler struct {
	users UserService
	now   func() time.Time
}

func NewAuthHandler(users UserService) *AuthHandler {
	return &AuthHandler{users: users, now: time.Now}
}

type AuthResponse struct {
	User      *user.User `json:"user"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// HandleSignUp handles POST /api/auth/sign-up
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var params user.SignUpParams
	if !decodeJSON(w, r, &params) {
		return
	}

	u, session, err := h.users.SignUp(r.Context(), params)
	if err != nil {
		if u == nil {
			writeError(w, err, "Sign up failed. Please try again.")
			return
		}
		// The account exists but no session could be opened.
		writeJSON(w, http.StatusCreated, AuthResponse{User: u, Error: apperror.PublicMessage(err, "Signed up, but could not sign you in. Please sign in.")})
		return
	}

	h.setSessionCookie(w, r, session)
	writeJSON(w, http.StatusCreated, AuthResponse{User: u, ExpiresAt: &session.ExpiresAt})
}

// HandleSignIn handles POST /api/auth/sign-in
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var params user.SignInParams
	if !decodeJSON(w, r, &params) {
		return
	}

	u, session, err := h.users.SignIn(r.Context(), params)
	if err != nil {
		writeError(w, err, "Sign in failed. Please try again.")
		return
	}

	h.setSessionCookie(w, r, session)
	writeJSON(w, http.StatusOK, AuthResponse{User: u, ExpiresAt: &session.ExpiresAt})
}

// HandleLogout handles POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if secret, ok := middleware.SessionSecret(r); ok {
		h.users.Logout(r.Context(), secret)
	}
	clearSessionCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, session *user.Session) {
	maxAge := int(session.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Secret,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// isSecure reports whether the client reached us over HTTPS.
func isSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}
