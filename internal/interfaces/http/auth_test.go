package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"horizon/internal/domain/user"
	"horizon/internal/shared/apperror"
	"horizon/internal/shared/middleware"
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	SignUpFunc          func(ctx context.Context, params user.SignUpParams) (*user.User, *user.Session, error)
	SignInFunc          func(ctx context.Context, params user.SignInParams) (*user.User, *user.Session, error)
	LogoutFunc          func(ctx context.Context, secret string)
	GetLoggedInUserFunc func(ctx context.Context, secret string) *user.User
	GetUserInfoFunc     func(ctx context.Context, userID string) *user.User
}

func (m *MockUserService) SignUp(ctx context.Context, params user.SignUpParams) (*user.User, *user.Session, error) {
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, params)
	}
	return nil, nil, errors.New("not implemented")
}

func (m *MockUserService) SignIn(ctx context.Context, params user.SignInParams) (*user.User, *user.Session, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, params)
	}
	return nil, nil, errors.New("not implemented")
}

func (m *MockUserService) Logout(ctx context.Context, secret string) {
	if m.LogoutFunc != nil {
		m.LogoutFunc(ctx, secret)
	}
}

func (m *MockUserService) GetLoggedInUser(ctx context.Context, secret string) *user.User {
	if m.GetLoggedInUserFunc != nil {
		return m.GetLoggedInUserFunc(ctx, secret)
	}
	return nil
}

func (m *MockUserService) GetUserInfo(ctx context.Context, userID string) *user.User {
	if m.GetUserInfoFunc != nil {
		return m.GetUserInfoFunc(ctx, userID)
	}
	return nil
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, userID))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp.Error
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestHandleSignIn(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		signIn     func(ctx context.Context, params user.SignInParams) (*user.User, *user.Session, error)
		wantStatus int
		wantCookie bool
		wantError  string
	}{
		{
			name: "success sets cookie",
			body: `{"email":"ada@example.com","password":"correct horse"}`,
			signIn: func(ctx context.Context, params user.SignInParams) (*user.User, *user.Session, error) {
				return &user.User{ID: "user-1", Email: params.Email},
					&user.Session{Secret: "secret-1", UserID: "user-1", ExpiresAt: fixedNow.Add(time.Hour)}, nil
			},
			wantStatus: http.StatusOK,
			wantCookie: true,
		},
		{
			name: "mapped error",
			body: `{"email":"ada@example.com","password":"wrong"}`,
			signIn: func(ctx context.Context, params user.SignInParams) (*user.User, *user.Session, error) {
				return nil, nil, apperror.Unauthorized("Invalid credentials. Please check the email and password.", nil)
			},
			wantStatus: http.StatusUnauthorized,
			wantError:  "Invalid credentials. Please check the email and password.",
		},
		{
			name:       "malformed body",
			body:       `{"email":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
		{
			name:       "unknown field",
			body:       `{"email":"a@b.c","password":"x","admin":true}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&MockUserService{SignInFunc: tt.signIn})
			h.now = func() time.Time { return fixedNow }

			req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.HandleSignIn(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body=%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			cookie := sessionCookie(rec)
			if tt.wantCookie {
				if cookie == nil {
					t.Fatal("expected session cookie")
				}
				if cookie.Value != "secret-1" || !cookie.HttpOnly || cookie.SameSite != http.SameSiteStrictMode {
					t.Errorf("unexpected cookie: %+v", cookie)
				}
				if cookie.MaxAge != 3600 {
					t.Errorf("MaxAge = %d, want 3600", cookie.MaxAge)
				}
			} else if cookie != nil {
				t.Errorf("unexpected session cookie")
			}
			if tt.wantError != "" {
				if got := decodeError(t, rec); got != tt.wantError {
					t.Errorf("error = %q, want %q", got, tt.wantError)
				}
			}
		})
	}
}

func TestHandleSignIn_SecureCookieBehindTLSProxy(t *testing.T) {
	h := NewAuthHandler(&MockUserService{
		SignInFunc: func(ctx context.Context, params user.SignInParams) (*user.User, *user.Session, error) {
			return nil, &user.Session{Secret: "s", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/sign-in", strings.NewReader(`{"email":"a@b.co","password":"x"}`))
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, req)

	if c := sessionCookie(rec); c == nil || !c.Secure {
		t.Errorf("expected secure cookie, got %+v", c)
	}
}

func TestHandleSignUp(t *testing.T) {
	body, _ := json.Marshal(user.SignUpParams{Email: "ada@example.com", Password: "correct horse"})

	t.Run("success", func(t *testing.T) {
		h := NewAuthHandler(&MockUserService{
			SignUpFunc: func(ctx context.Context, params user.SignUpParams) (*user.User, *user.Session, error) {
				return &user.User{ID: "user-1"}, &user.Session{Secret: "s1", ExpiresAt: time.Now().Add(time.Hour)}, nil
			},
		})
		rec := httptest.NewRecorder()
		h.HandleSignUp(rec, httptest.NewRequest(http.MethodPost, "/api/auth/sign-up", bytes.NewReader(body)))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d", rec.Code)
		}
		if sessionCookie(rec) == nil {
			t.Error("expected session cookie")
		}
	})

	t.Run("conflict", func(t *testing.T) {
		h := NewAuthHandler(&MockUserService{
			SignUpFunc: func(ctx context.Context, params user.SignUpParams) (*user.User, *user.Session, error) {
				return nil, nil, apperror.Conflict("A user with the same email already exists", nil)
			},
		})
		rec := httptest.NewRecorder()
		h.HandleSignUp(rec, httptest.NewRequest(http.MethodPost, "/api/auth/sign-up", bytes.NewReader(body)))

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d", rec.Code)
		}
		if got := decodeError(t, rec); got != "A user with the same email already exists" {
			t.Errorf("error = %q", got)
		}
	})

	t.Run("created without session", func(t *testing.T) {
		h := NewAuthHandler(&MockUserService{
			SignUpFunc: func(ctx context.Context, params user.SignUpParams) (*user.User, *user.Session, error) {
				return &user.User{ID: "user-1"}, nil, apperror.Unavailable("Please sign in.", nil)
			},
		})
		rec := httptest.NewRecorder()
		h.HandleSignUp(rec, httptest.NewRequest(http.MethodPost, "/api/auth/sign-up", bytes.NewReader(body)))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d", rec.Code)
		}
		if sessionCookie(rec) != nil {
			t.Error("no cookie expected without a session")
		}
		var resp AuthResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp.User == nil || resp.User.ID != "user-1" || resp.Error != "Please sign in." {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestHandleLogout(t *testing.T) {
	var loggedOut string
	h := NewAuthHandler(&MockUserService{
		LogoutFunc: func(ctx context.Context, secret string) { loggedOut = secret },
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "secret-1"})
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if loggedOut != "secret-1" {
		t.Errorf("Logout called with %q", loggedOut)
	}
	if c := sessionCookie(rec); c == nil || c.MaxAge != -1 {
		t.Errorf("expected cleared cookie, got %+v", c)
	}
}

func TestHandleMe_OmitsSSN(t *testing.T) {
	users := &MockUserService{
		GetLoggedInUserFunc: func(ctx context.Context, secret string) *user.User {
			if secret == "good" {
				return &user.User{ID: "user-1", SSN: "1234"}
			}
			return nil
		},
	}
	h := NewUserHandler(users)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.SessionSecretKey, "good"))
	rec := httptest.NewRecorder()
	h.HandleMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "1234") {
		t.Error("SSN must not be serialised")
	}

	rec = httptest.NewRecorder()
	h.HandleMe(rec, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
