package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"horizon/internal/domain/user"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	signInPath         = "/accounts:signInWithPassword"
	defaultTimeout     = 15 * time.Second
)

// AuthClient is the subset of *auth.Client the provider uses.
type AuthClient interface {
	CreateUser(ctx context.Context, u *auth.UserToCreate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type FirebaseConfig struct {
	WebAPIKey  string
	SessionTTL time.Duration
	BaseURL    string // overrides the Identity Toolkit endpoint when set
}

// Firebase uses Firebase Authentication accounts and session cookies.
// Passwords are checked by the Identity Toolkit REST API since the Admin SDK
// cannot verify them.
type Firebase struct {
	auth       AuthClient
	httpClient *http.Client
	baseURL    string
	apiKey     string
	sessionTTL time.Duration
}

var _ user.IdentityProvider = (*Firebase)(nil)

func NewFirebase(client AuthClient, cfg FirebaseConfig) *Firebase {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = identityToolkitURL
	}
	ttl := cfg.SessionTTL
	// Firebase session cookies last between 5 minutes and 2 weeks.
	ttl = max(ttl, 5*time.Minute)
	ttl = min(ttl, 14*24*time.Hour)
	return &Firebase{
		auth: client,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.WebAPIKey,
		sessionTTL: ttl,
	}
}

func (f *Firebase) CreateAccount(ctx context.Context, email, password, name string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(name)
	record, err := f.auth.CreateUser(ctx, params)
	if err != nil {
		switch {
		case auth.IsEmailAlreadyExists(err):
			return "", user.ErrEmailExists
		case auth.IsUIDAlreadyExists(err):
			return "", user.ErrAccountExists
		}
		return "", fmt.Errorf("failed to create firebase user: %w", err)
	}
	return record.UID, nil
}

func (f *Firebase) DeleteAccount(ctx context.Context, accountID string) error {
	if err := f.auth.DeleteUser(ctx, accountID); err != nil {
		if auth.IsUserNotFound(err) {
			return user.ErrAccountNotFound
		}
		return fmt.Errorf("failed to delete firebase user: %w", err)
	}
	return nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken string `json:"idToken"`
	LocalID string `json:"localId"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Firebase) CreateSession(ctx context.Context, email, password string) (*user.Session, error) {
	signIn, err := f.signInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	cookie, err := f.auth.SessionCookie(ctx, signIn.IDToken, f.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cookie: %w", err)
	}
	return &user.Session{
		Secret:    cookie,
		UserID:    signIn.LocalID,
		ExpiresAt: time.Now().Add(f.sessionTTL),
	}, nil
}

func (f *Firebase) signInWithPassword(ctx context.Context, email, password string) (*signInResponse, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sign-in request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+signInPath+"?key="+f.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign-in request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sign-in response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var te toolkitError
		if err := json.Unmarshal(data, &te); err != nil || te.Error.Message == "" {
			return nil, fmt.Errorf("sign-in failed with status %d", resp.StatusCode)
		}
		return nil, mapToolkitError(te.Error.Message)
	}

	var out signInResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode sign-in response: %w", err)
	}
	if out.IDToken == "" || out.LocalID == "" {
		return nil, errors.New("sign-in response missing token")
	}
	return &out, nil
}

// mapToolkitError translates Identity Toolkit messages such as
// "TOO_MANY_ATTEMPTS_TRY_LATER : Access disabled".
func mapToolkitError(message string) error {
	code, _, _ := strings.Cut(message, " ")
	switch code {
	case "INVALID_LOGIN_CREDENTIALS", "INVALID_PASSWORD", "INVALID_EMAIL":
		return user.ErrInvalidCredentials
	case "EMAIL_NOT_FOUND":
		return user.ErrAccountNotFound
	case "USER_DISABLED":
		return user.ErrAccountBlocked
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return user.ErrRateLimited
	}
	return fmt.Errorf("sign-in failed: %s", message)
}

func (f *Firebase) ResolveSession(ctx context.Context, secret string) (string, error) {
	token, err := f.auth.VerifySessionCookieAndCheckRevoked(ctx, secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", user.ErrSessionInvalid, err)
	}
	return token.UID, nil
}

// DeleteSession revokes every refresh token of the session's user, which
// invalidates all of that user's session cookies.
func (f *Firebase) DeleteSession(ctx context.Context, secret string) error {
	token, err := f.auth.VerifySessionCookieAndCheckRevoked(ctx, secret)
	if err != nil {
		return nil
	}
	if err := f.auth.RevokeRefreshTokens(ctx, token.UID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
