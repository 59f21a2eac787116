package task

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. Used by
// tests and DSN-less development runs.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]*Task
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty task store.
func NewInMemory() *InMemory {
	return &InMemory{tasks: make(map[int64]*Task)}
}

func (s *InMemory) Insert(ctx context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := time.Now().UTC()
	t.ID = s.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, id int64) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *InMemory) FindOwned(ctx context.Context, ownerID string, id int64) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *InMemory) ListByOwner(ctx context.Context, ownerID string) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Task
	for _, t := range s.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		cp := *t
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *InMemory) Update(ctx context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tasks[t.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Title = t.Title
	stored.Description = t.Description
	stored.UpdatedAt = time.Now().UTC()
	t.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *InMemory) DeleteByOwner(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tasks {
		if t.OwnerID == ownerID {
			delete(s.tasks, id)
		}
	}
	return nil
}
