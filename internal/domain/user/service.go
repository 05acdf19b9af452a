package user

import (
	"context"
	"errors"
	"log"
	"strings"

	"horizon/internal/domain/payment"
	"horizon/internal/shared/apperror"
)

const (
	msgAccountExists     = "An account with this email already exists. Please sign in instead."
	msgEmailExists       = "This email is already registered. Please use a different email or sign in."
	msgInvalidSignUp     = "Please check your information and ensure all fields are filled correctly."
	msgInfoExists        = "An account with this information already exists. Please sign in or use different details."
	msgPaymentsSetup     = "Failed to set up payment processing. Please try again or contact support."
	msgSignUpFailed      = "Failed to create account. Please check your information and try again."
	msgSignUpNoSession   = "Your account was created but we could not sign you in. Please sign in."
	msgInvalidCredential = "Invalid email or password. Please check your credentials and try again."
	msgBlocked           = "Your account has been blocked. Please contact support."
	msgNoAccount         = "No account found with this email. Please sign up first."
	msgTooManyAttempts   = "Too many login attempts. Please wait a few minutes and try again."
	msgSignInFailed      = "Failed to sign in. Please try again."
)

// Service handles sign-up, sign-in and the current user's profile.
type Service struct {
	repo     Repository
	identity IdentityProvider
	payments payment.Provider
}

func NewService(repo Repository, identity IdentityProvider, payments payment.Provider) *Service {
	return &Service{repo: repo, identity: identity, payments: payments}
}

// SignUp creates the identity account, the payments customer and the user
// document, then opens a session. If a step after identity creation fails,
// the identity account is deleted so the email can be reused.
func (s *Service) SignUp(ctx context.Context, params SignUpParams) (*User, *Session, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, apperror.Invalid(msgInvalidSignUp, err)
	}

	accountID, err := s.identity.CreateAccount(ctx, params.Email, params.Password, FullName(params.FirstName, params.LastName))
	if err != nil {
		log.Printf("Sign up: identity account creation failed: %v", err)
		return nil, nil, mapSignUpError(err)
	}

	customerURL, err := s.payments.CreateCustomer(ctx, payment.NewCustomer{
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		Email:       params.Email,
		Type:        "personal",
		Address1:    params.Address1,
		City:        params.City,
		State:       params.State,
		PostalCode:  params.PostalCode,
		DateOfBirth: params.DateOfBirth,
		SSN:         params.SSN,
	})
	if err == nil && customerURL == "" {
		err = errors.New("payments provider returned no customer")
	}
	if err != nil {
		log.Printf("Sign up: payments customer creation failed for account %s: %v", accountID, err)
		s.deleteAccount(ctx, accountID)
		if payment.ErrorCode(err) == payment.CodeValidationError {
			return nil, nil, apperror.Invalid(msgInvalidSignUp, err)
		}
		return nil, nil, apperror.Unavailable(msgPaymentsSetup, err)
	}

	u, err := s.repo.Create(ctx, CreateUserParams{
		ID:                  accountID,
		Email:               params.Email,
		FirstName:           params.FirstName,
		LastName:            params.LastName,
		Address1:            params.Address1,
		City:                params.City,
		State:               params.State,
		PostalCode:          params.PostalCode,
		DateOfBirth:         params.DateOfBirth,
		SSN:                 params.SSN,
		PaymentsCustomerID:  payment.ExtractCustomerID(customerURL),
		PaymentsCustomerURL: customerURL,
	})
	if err != nil {
		// Payments customers cannot be deleted, only deactivated by support.
		log.Printf("Sign up: persisting user %s failed, payments customer %s left orphaned: %v", accountID, customerURL, err)
		s.deleteAccount(ctx, accountID)
		return nil, nil, mapSignUpError(err)
	}

	session, err := s.identity.CreateSession(ctx, params.Email, params.Password)
	if err != nil {
		log.Printf("Sign up: session creation failed for user %s: %v", accountID, err)
		return u, nil, apperror.Unavailable(msgSignUpNoSession, err)
	}

	return u, session, nil
}

func (s *Service) deleteAccount(ctx context.Context, accountID string) {
	if err := s.identity.DeleteAccount(ctx, accountID); err != nil {
		log.Printf("Sign up: failed to delete identity account %s during rollback: %v", accountID, err)
	}
}

func mapSignUpError(err error) error {
	switch {
	case errors.Is(err, ErrAccountExists):
		return apperror.Conflict(msgAccountExists, err)
	case errors.Is(err, ErrEmailExists):
		return apperror.Conflict(msgEmailExists, err)
	case errors.Is(err, ErrInvalidArgument):
		return apperror.Invalid(msgInvalidSignUp, err)
	case errors.Is(err, ErrRateLimited):
		return apperror.RateLimited(msgTooManyAttempts, err)
	case errors.Is(err, ErrUserExists), strings.Contains(err.Error(), "already exists"):
		return apperror.Conflict(msgInfoExists, err)
	default:
		return apperror.Internal(msgSignUpFailed, err)
	}
}

// SignIn opens a session and loads the user's document. The document may be
// nil if it was never created.
func (s *Service) SignIn(ctx context.Context, params SignInParams) (*User, *Session, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, apperror.Invalid(msgInvalidCredential, err)
	}

	session, err := s.identity.CreateSession(ctx, params.Email, params.Password)
	if err != nil {
		log.Printf("Sign in error: %v", err)
		return nil, nil, mapSignInError(err)
	}

	return s.GetUserInfo(ctx, session.UserID), session, nil
}

func mapSignInError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return apperror.Unauthorized(msgInvalidCredential, err)
	case errors.Is(err, ErrAccountBlocked):
		return apperror.Forbidden(msgBlocked, err)
	case errors.Is(err, ErrAccountNotFound):
		return apperror.NotFound(msgNoAccount, err)
	case errors.Is(err, ErrRateLimited):
		return apperror.RateLimited(msgTooManyAttempts, err)
	default:
		return apperror.Internal(msgSignInFailed, err)
	}
}

// GetLoggedInUser returns the user behind a session secret, or nil.
func (s *Service) GetLoggedInUser(ctx context.Context, secret string) *User {
	if secret == "" {
		return nil
	}
	userID, err := s.identity.ResolveSession(ctx, secret)
	if err != nil {
		return nil
	}
	return s.GetUserInfo(ctx, userID)
}

// ResolveSession lets the service back the HTTP auth middleware.
func (s *Service) ResolveSession(ctx context.Context, secret string) (string, error) {
	return s.identity.ResolveSession(ctx, secret)
}

// Logout ends the session. Failures are logged and otherwise ignored.
func (s *Service) Logout(ctx context.Context, secret string) {
	if secret == "" {
		return
	}
	if err := s.identity.DeleteSession(ctx, secret); err != nil {
		log.Printf("Logout: failed to delete session: %v", err)
	}
}

// GetUserInfo returns the user document, or nil when the id is empty or the
// lookup fails.
func (s *Service) GetUserInfo(ctx context.Context, userID string) *User {
	if userID == "" {
		log.Println("GetUserInfo: userID is required")
		return nil
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("GetUserInfo error for %s: %v", userID, err)
		return nil
	}
	return u
}
