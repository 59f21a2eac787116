package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemory implements Store for tests and DSN-less development runs.
type InMemory struct {
	mu         sync.RWMutex
	nextCatID  int64
	nextProdID int64
	categories map[int64]*Category
	products   map[int64]*Product
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty catalog store.
func NewInMemory() *InMemory {
	return &InMemory{
		categories: make(map[int64]*Category),
		products:   make(map[int64]*Product),
	}
}

func (s *InMemory) InsertCategory(ctx context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return ErrConflict
		}
	}
	s.nextCatID++
	now := time.Now().UTC()
	c.ID = s.nextCatID
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *InMemory) ListCategories(ctx context.Context) ([]*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *InMemory) FindCategory(ctx context.Context, id int64) (*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(s.categories, id)
	// Mirror the SQL schema's on-delete-cascade.
	for pid, p := range s.products {
		if p.CategoryID == id {
			delete(s.products, pid)
		}
	}
	return nil
}

func (s *InMemory) InsertProduct(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.products {
		if strings.EqualFold(existing.Name, p.Name) {
			return ErrConflict
		}
	}
	s.nextProdID++
	now := time.Now().UTC()
	p.ID = s.nextProdID
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *InMemory) ListProducts(ctx context.Context) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *InMemory) FindProduct(ctx context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) UpdateProduct(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	for pid, existing := range s.products {
		if pid != p.ID && strings.EqualFold(existing.Name, p.Name) {
			return ErrConflict
		}
	}
	stored.Name = p.Name
	stored.PriceMinor = p.PriceMinor
	stored.Description = p.Description
	stored.CategoryID = p.CategoryID
	stored.UpdatedAt = time.Now().UTC()
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *InMemory) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}
