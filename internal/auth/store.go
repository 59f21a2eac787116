package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskhive.org/internal/ids"
)

// UserStore describes persistence operations required by the auth subsystem.
// Deleting a user removes every task it owns; the cascade is enforced at the
// storage boundary, not by callers.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryUsers implements UserStore for tests and DSN-less development runs.
type InMemoryUsers struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string

	// onDelete hooks let sibling in-memory stores participate in the
	// owner-removal cascade the SQL schema gets from foreign keys.
	onDelete []func(userID string)
}

// NewInMemoryUsers creates an empty user store.
func NewInMemoryUsers() *InMemoryUsers {
	return &InMemoryUsers{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// OnDelete registers a cascade hook invoked after a user is removed.
func (s *InMemoryUsers) OnDelete(fn func(userID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDelete = append(s.onDelete, fn)
}

func (s *InMemoryUsers) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, exists := s.byEmail[email]; exists {
		return ErrConflict
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := time.Now().UTC()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	s.byID[u.ID] = &cp
	s.byEmail[email] = u.ID
	return nil
}

func (s *InMemoryUsers) Find(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *InMemoryUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemoryUsers) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	u, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.byID, id)
	hooks := make([]func(string), len(s.onDelete))
	copy(hooks, s.onDelete)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(id)
	}
	return nil
}
