package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"shopql.org/internal/gqlerr"
	"shopql.org/internal/store"
)

// Service orchestrates the session lifecycle: register, login, refresh and
// logout. It owns no token state beyond the single refresh-token signature
// persisted per customer, which makes refresh tokens single-use and gives
// logout real revocation.
type Service struct {
	tokens    *TokenService
	customers store.CustomerStore
}

// NewService wires the session flow.
func NewService(tokens *TokenService, customers store.CustomerStore) (*Service, error) {
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	if customers == nil {
		return nil, errors.New("auth: customer store is required")
	}
	return &Service{tokens: tokens, customers: customers}, nil
}

// Tokens exposes the underlying token service.
func (s *Service) Tokens() *TokenService { return s.tokens }

// RegisterInput carries the registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Session is the result of a successful login or refresh. RefreshToken is
// handed to the transport for cookie delivery and never returned in the
// response body.
type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	Customer         store.Customer
}

// Register creates a new customer account. The email must not already be
// registered (exact, case-sensitive match).
func (s *Service) Register(ctx context.Context, in RegisterInput) (store.Customer, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return store.Customer{}, gqlerr.Validation("email and password are required")
	}

	if _, err := s.customers.FindByEmail(ctx, in.Email); err == nil {
		return store.Customer{}, gqlerr.Validation("email already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return store.Customer{}, gqlerr.Database("failed to register account", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return store.Customer{}, gqlerr.Database("failed to register account", err)
	}

	customer, err := s.customers.Create(ctx, store.Customer{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         RoleDefault,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return store.Customer{}, gqlerr.Validation("email already in use")
		}
		return store.Customer{}, gqlerr.Database("failed to register account", err)
	}
	return customer, nil
}

// Login authenticates credentials and issues a fresh token pair. The error
// message is identical for an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, gqlerr.Validation("email and password are required")
	}

	customer, err := s.customers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, gqlerr.Authentication("incorrect email or password")
		}
		return Session{}, gqlerr.Database("failed to log in", err)
	}
	if !VerifyPassword(password, customer.PasswordHash) {
		return Session{}, gqlerr.Authentication("incorrect email or password")
	}

	return s.startSession(ctx, customer)
}

// Refresh rotates the refresh token: the presented token must carry the
// signature currently on file, and a new pair replaces it. Concurrent
// refreshes racing on the same token leave at most one winner; the loser
// sees a signature mismatch and fails closed.
func (s *Service) Refresh(ctx context.Context, presented string) (Session, error) {
	if strings.TrimSpace(presented) == "" {
		return Session{}, gqlerr.Authentication("missing refresh token")
	}

	claims, err := s.tokens.Verify(presented, KindRefresh)
	if err != nil {
		return Session{}, gqlerr.Authentication("invalid refresh token")
	}

	customer, err := s.customers.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrMalformedID) {
			return Session{}, gqlerr.Authentication("invalid refresh token")
		}
		return Session{}, gqlerr.Database("failed to refresh session", err)
	}
	if customer.RefreshTokenSig == "" {
		return Session{}, gqlerr.Authentication("refresh token revoked")
	}

	sig, err := Signature(presented)
	if err != nil {
		return Session{}, gqlerr.Authentication("invalid refresh token")
	}
	if subtle.ConstantTimeCompare([]byte(sig), []byte(customer.RefreshTokenSig)) != 1 {
		return Session{}, gqlerr.Authentication("invalid refresh token")
	}

	return s.startSession(ctx, customer)
}

// Logout revokes the current refresh token. It is idempotent: an absent or
// unverifiable token still reports success, and the transport clears the
// cookie regardless.
func (s *Service) Logout(ctx context.Context, presented string) bool {
	if strings.TrimSpace(presented) == "" {
		return true
	}
	claims, err := s.tokens.Verify(presented, KindRefresh)
	if err != nil {
		return true
	}
	if _, err := s.customers.FindByID(ctx, claims.UserID); err != nil {
		return true
	}
	_ = s.customers.SetRefreshTokenSig(ctx, claims.UserID, "")
	return true
}

// Authenticate verifies a bearer access token and reconstructs the request
// principal. Purely cryptographic; no storage round trip.
func (s *Service) Authenticate(token string) (Principal, error) {
	claims, err := s.tokens.Verify(token, KindAccess)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	return principalFromClaims(claims), nil
}

func (s *Service) startSession(ctx context.Context, customer store.Customer) (Session, error) {
	principal := Principal{UserID: customer.ID, Email: customer.Email, Role: customer.Role}

	accessToken, accessExp, err := s.tokens.IssueAccess(principal)
	if err != nil {
		return Session{}, gqlerr.Internal(err)
	}
	refreshToken, refreshExp, err := s.tokens.IssueRefresh(principal)
	if err != nil {
		return Session{}, gqlerr.Internal(err)
	}

	sig, err := Signature(refreshToken)
	if err != nil {
		return Session{}, gqlerr.Internal(err)
	}
	// Single atomic overwrite: any previously issued refresh token for
	// this customer is dead from here on.
	if err := s.customers.SetRefreshTokenSig(ctx, customer.ID, sig); err != nil {
		return Session{}, gqlerr.Database("failed to persist session", err)
	}
	customer.RefreshTokenSig = sig

	return Session{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
		Customer:         customer,
	}, nil
}
