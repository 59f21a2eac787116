package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const minPasswordLength = 8

// Service registers, authenticates and removes users.
type Service struct {
	users    UserStore
	tokenTTL time.Duration
}

// Option configures Service.
type Option func(*Service)

// WithTokenTTL overrides the default access-token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// NewService constructs a Service over the given user store.
func NewService(users UserStore, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	s := &Service{users: users, tokenTTL: 15 * time.Minute}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates a new user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", time.Time{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(u.ID, s.tokenTTL)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return u, token, time.Now().UTC().Add(s.tokenTTL), nil
}

// DeleteAccount removes the user; owned tasks go with it via the store cascade.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.users.Delete(ctx, userID)
}

// Find returns the user by ID.
func (s *Service) Find(ctx context.Context, userID string) (*User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.users.Find(ctx, userID)
}
