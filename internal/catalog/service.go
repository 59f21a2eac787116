package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Store describes catalog persistence. Deleting a category removes its
// products; the cascade lives at the storage boundary.
type Store interface {
	InsertCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]*Category, error)
	FindCategory(ctx context.Context, id int64) (*Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	InsertProduct(ctx context.Context, p *Product) error
	ListProducts(ctx context.Context) ([]*Product, error)
	FindProduct(ctx context.Context, id int64) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// Action mirrors the task action set. Products have no ownership: every rule
// is allow-for-any-authenticated-principal today. The table is kept so a
// future restriction is a one-line change, not a new mechanism.
type Action int

const (
	ActionViewAny Action = iota
	ActionView
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Policy is the uniform product policy.
type Policy struct {
	rules map[Action]func(principalID string, p *Product) bool
}

// NewPolicy returns the catalog policy: any authenticated principal may do
// everything.
func NewPolicy() Policy {
	anyAuthenticated := func(principalID string, _ *Product) bool {
		return principalID != ""
	}
	return Policy{rules: map[Action]func(string, *Product) bool{
		ActionViewAny: anyAuthenticated,
		ActionView:    anyAuthenticated,
		ActionCreate:  anyAuthenticated,
		ActionUpdate:  anyAuthenticated,
		ActionDelete:  anyAuthenticated,
	}}
}

// Allows evaluates the rule for the action.
func (p Policy) Allows(principalID string, action Action, target *Product) bool {
	rule, ok := p.rules[action]
	if !ok {
		return false
	}
	return rule(principalID, target)
}

// Service validates catalog input and delegates to the store.
type Service struct {
	store  Store
	policy Policy
}

// NewService constructs a Service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	return &Service{store: store, policy: NewPolicy()}, nil
}

// Policy exposes the product policy for the authorization gate.
func (s *Service) Policy() Policy { return s.policy }

// CreateCategory creates a category with a trimmed, required name.
func (s *Service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > 255 {
		return nil, fmt.Errorf("%w: category name must be at most 255 characters", ErrInvalidInput)
	}
	c := &Category{Name: name}
	if err := s.store.InsertCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.store.ListCategories(ctx)
}

// DeleteCategory removes a category and, transitively, its products.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.store.DeleteCategory(ctx, id)
}

func (s *Service) validateProduct(ctx context.Context, in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Name) > 255 {
		return fmt.Errorf("%w: product name must be at most 255 characters", ErrInvalidInput)
	}
	if in.PriceMinor <= 0 {
		return fmt.Errorf("%w: price must be greater than zero", ErrInvalidInput)
	}
	if _, err := s.store.FindCategory(ctx, in.CategoryID); err != nil {
		return fmt.Errorf("%w: category %d does not exist", ErrInvalidInput, in.CategoryID)
	}
	if in.Description != nil {
		trimmed := strings.TrimSpace(*in.Description)
		if trimmed == "" {
			in.Description = nil
		} else {
			in.Description = &trimmed
		}
	}
	return nil
}

// CreateProduct validates the payload and persists a new product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if err := s.validateProduct(ctx, &in); err != nil {
		return nil, err
	}
	p := &Product{
		Name:        in.Name,
		PriceMinor:  in.PriceMinor,
		Description: in.Description,
		CategoryID:  in.CategoryID,
	}
	if err := s.store.InsertProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts returns all products.
func (s *Service) ListProducts(ctx context.Context) ([]*Product, error) {
	return s.store.ListProducts(ctx)
}

// FindProduct returns the product by ID.
func (s *Service) FindProduct(ctx context.Context, id int64) (*Product, error) {
	return s.store.FindProduct(ctx, id)
}

// UpdateProduct validates the payload and applies it to an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*Product, error) {
	p, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateProduct(ctx, &in); err != nil {
		return nil, err
	}
	p.Name = in.Name
	p.PriceMinor = in.PriceMinor
	p.Description = in.Description
	p.CategoryID = in.CategoryID
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes the product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.store.DeleteProduct(ctx, id)
}
