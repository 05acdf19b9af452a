package user

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horizon/internal/domain/payment"
	"horizon/internal/domain/payment/paymenttest"
	"horizon/internal/shared/apperror"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	CreateFunc  func(ctx context.Context, params CreateUserParams) (*User, error)
	GetByIDFunc func(ctx context.Context, id string) (*User, error)
	created     []CreateUserParams
}

func (m *MockRepository) Create(ctx context.Context, params CreateUserParams) (*User, error) {
	m.created = append(m.created, params)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return &User{ID: params.ID, Email: params.Email, Name: FullName(params.FirstName, params.LastName), PaymentsCustomerID: params.PaymentsCustomerID}, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &User{ID: id}, nil
}

// MockIdentity is a mock implementation of IdentityProvider
type MockIdentity struct {
	CreateAccountFunc  func(ctx context.Context, email, password, name string) (string, error)
	CreateSessionFunc  func(ctx context.Context, email, password string) (*Session, error)
	ResolveSessionFunc func(ctx context.Context, secret string) (string, error)
	DeleteSessionFunc  func(ctx context.Context, secret string) error
	deleted            []string
}

func (m *MockIdentity) CreateAccount(ctx context.Context, email, password, name string) (string, error) {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, email, password, name)
	}
	return "acct-1", nil
}

func (m *MockIdentity) DeleteAccount(ctx context.Context, accountID string) error {
	m.deleted = append(m.deleted, accountID)
	return nil
}

func (m *MockIdentity) CreateSession(ctx context.Context, email, password string) (*Session, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, email, password)
	}
	return &Session{Secret: "secret", UserID: "acct-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *MockIdentity) ResolveSession(ctx context.Context, secret string) (string, error) {
	if m.ResolveSessionFunc != nil {
		return m.ResolveSessionFunc(ctx, secret)
	}
	return "acct-1", nil
}

func (m *MockIdentity) DeleteSession(ctx context.Context, secret string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, secret)
	}
	return nil
}

func validSignUp() SignUpParams {
	return SignUpParams{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Address1:    "1 Analytical Way",
		City:        "London",
		State:       "ny",
		PostalCode:  "10001",
		DateOfBirth: "1990-12-10",
		SSN:         "1234",
		Email:       " Ada@Example.com ",
		Password:    "supersecret",
	}
}

func TestSignUp_Success(t *testing.T) {
	repo := &MockRepository{}
	identity := &MockIdentity{}
	var customer payment.NewCustomer
	payments := &paymenttest.MockProvider{
		CreateCustomerFunc: func(ctx context.Context, c payment.NewCustomer) (string, error) {
			customer = c
			return "https://api-sandbox.dwolla.com/customers/cust-9", nil
		},
	}

	u, session, err := NewService(repo, identity, payments).SignUp(context.Background(), validSignUp())
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, "acct-1", u.ID)
	assert.Equal(t, "ada@example.com", customer.Email)
	assert.Equal(t, "NY", customer.State)
	assert.Equal(t, "personal", customer.Type)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "cust-9", repo.created[0].PaymentsCustomerID)
	assert.Equal(t, "acct-1", repo.created[0].ID)
	assert.Empty(t, identity.deleted)
}

func TestSignUp_ValidationFailure(t *testing.T) {
	identity := &MockIdentity{
		CreateAccountFunc: func(ctx context.Context, email, password, name string) (string, error) {
			t.Fatal("identity should not be called for invalid input")
			return "", nil
		},
	}
	params := validSignUp()
	params.PostalCode = "ab"
	params.Password = "short"

	_, _, err := NewService(&MockRepository{}, identity, &paymenttest.MockProvider{}).SignUp(context.Background(), params)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperror.HTTPStatus(err))
	assert.ElementsMatch(t, []string{"postalCode", "password"}, InvalidFields(errors.Unwrap(err)))
}

func TestSignUp_FutureDateOfBirth(t *testing.T) {
	params := validSignUp()
	params.DateOfBirth = time.Now().AddDate(1, 0, 0).Format("2006-01-02")

	assert.Error(t, params.Validate())
}

func TestSignUp_IdentityErrorsCreateNoDocument(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"account exists", ErrAccountExists, http.StatusConflict, msgAccountExists},
		{"email exists", ErrEmailExists, http.StatusConflict, msgEmailExists},
		{"invalid argument", ErrInvalidArgument, http.StatusBadRequest, msgInvalidSignUp},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, msgTooManyAttempts},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, msgSignUpFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockRepository{}
			identity := &MockIdentity{
				CreateAccountFunc: func(ctx context.Context, email, password, name string) (string, error) {
					return "", tt.err
				},
			}
			payments := &paymenttest.MockProvider{
				CreateCustomerFunc: func(ctx context.Context, c payment.NewCustomer) (string, error) {
					t.Error("payments customer should not be created")
					return "", nil
				},
			}

			_, _, err := NewService(repo, identity, payments).SignUp(context.Background(), validSignUp())
			require.Error(t, err)
			assert.Equal(t, tt.wantStatus, apperror.HTTPStatus(err))
			assert.Equal(t, tt.wantMsg, apperror.PublicMessage(err, ""))
			assert.Empty(t, repo.created)
		})
	}
}

func TestSignUp_PaymentsFailureDeletesIdentityAccount(t *testing.T) {
	repo := &MockRepository{}
	identity := &MockIdentity{}
	payments := &paymenttest.MockProvider{
		CreateCustomerFunc: func(ctx context.Context, c payment.NewCustomer) (string, error) {
			return "", errors.New("dwolla unavailable")
		},
	}

	_, _, err := NewService(repo, identity, payments).SignUp(context.Background(), validSignUp())
	require.Error(t, err)
	assert.Equal(t, msgPaymentsSetup, apperror.PublicMessage(err, ""))
	assert.Equal(t, []string{"acct-1"}, identity.deleted)
	assert.Empty(t, repo.created)
}

func TestSignUp_PaymentsValidationError(t *testing.T) {
	payments := &paymenttest.MockProvider{
		CreateCustomerFunc: func(ctx context.Context, c payment.NewCustomer) (string, error) {
			return "", &paymenttest.CodedError{Code: payment.CodeValidationError}
		},
	}

	_, _, err := NewService(&MockRepository{}, &MockIdentity{}, payments).SignUp(context.Background(), validSignUp())
	assert.Equal(t, http.StatusBadRequest, apperror.HTTPStatus(err))
}

func TestSignUp_PersistFailureDeletesIdentityAccount(t *testing.T) {
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, params CreateUserParams) (*User, error) {
			return nil, ErrUserExists
		},
	}
	identity := &MockIdentity{}

	_, _, err := NewService(repo, identity, &paymenttest.MockProvider{}).SignUp(context.Background(), validSignUp())
	require.Error(t, err)
	assert.Equal(t, msgInfoExists, apperror.PublicMessage(err, ""))
	assert.Equal(t, []string{"acct-1"}, identity.deleted)
}

func TestSignUp_SessionFailureKeepsAccount(t *testing.T) {
	identity := &MockIdentity{
		CreateSessionFunc: func(ctx context.Context, email, password string) (*Session, error) {
			return nil, errors.New("session store down")
		},
	}

	u, session, err := NewService(&MockRepository{}, identity, &paymenttest.MockProvider{}).SignUp(context.Background(), validSignUp())
	require.Error(t, err)
	assert.NotNil(t, u)
	assert.Nil(t, session)
	assert.Empty(t, identity.deleted)
}

func TestSignIn_ErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{ErrInvalidCredentials, http.StatusUnauthorized, msgInvalidCredential},
		{ErrAccountBlocked, http.StatusForbidden, msgBlocked},
		{ErrAccountNotFound, http.StatusNotFound, msgNoAccount},
		{ErrRateLimited, http.StatusTooManyRequests, msgTooManyAttempts},
		{errors.New("boom"), http.StatusInternalServerError, msgSignInFailed},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			identity := &MockIdentity{
				CreateSessionFunc: func(ctx context.Context, email, password string) (*Session, error) {
					return nil, tt.err
				},
			}

			_, _, err := NewService(&MockRepository{}, identity, nil).SignIn(context.Background(), SignInParams{Email: "a@b.co", Password: "x"})
			assert.Equal(t, tt.wantStatus, apperror.HTTPStatus(err))
			assert.Equal(t, tt.wantMsg, apperror.PublicMessage(err, ""))
		})
	}
}

func TestSignIn_Success(t *testing.T) {
	u, session, err := NewService(&MockRepository{}, &MockIdentity{}, nil).SignIn(context.Background(), SignInParams{Email: "A@B.co", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "secret", session.Secret)
	assert.Equal(t, "acct-1", u.ID)
}

func TestSignIn_MissingDocumentStillSignsIn(t *testing.T) {
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*User, error) { return nil, ErrNotFound },
	}

	u, session, err := NewService(repo, &MockIdentity{}, nil).SignIn(context.Background(), SignInParams{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)
	assert.NotNil(t, session)
	assert.Nil(t, u)
}

func TestGetLoggedInUser(t *testing.T) {
	svc := NewService(&MockRepository{}, &MockIdentity{}, nil)
	assert.Nil(t, svc.GetLoggedInUser(context.Background(), ""))
	require.NotNil(t, svc.GetLoggedInUser(context.Background(), "secret"))

	expired := NewService(&MockRepository{}, &MockIdentity{
		ResolveSessionFunc: func(ctx context.Context, secret string) (string, error) { return "", ErrSessionInvalid },
	}, nil)
	assert.Nil(t, expired.GetLoggedInUser(context.Background(), "secret"))
}

func TestGetUserInfo_MissingID(t *testing.T) {
	repo := &MockRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*User, error) {
			t.Error("repository should not be called")
			return nil, nil
		},
	}
	assert.Nil(t, NewService(repo, &MockIdentity{}, nil).GetUserInfo(context.Background(), ""))
}

func TestLogout_IgnoresErrors(t *testing.T) {
	var called bool
	identity := &MockIdentity{
		DeleteSessionFunc: func(ctx context.Context, secret string) error {
			called = true
			return errors.New("already gone")
		},
	}
	NewService(&MockRepository{}, identity, nil).Logout(context.Background(), "secret")
	assert.True(t, called)
}
