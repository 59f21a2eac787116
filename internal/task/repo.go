package task

import "context"

// Store describes the persistence operations the repository needs. Find is
// deliberately unscoped: update/delete targets are resolved by identifier
// alone and re-checked against the policy, so a task obtained through any
// path is still guarded.
type Store interface {
	Insert(ctx context.Context, t *Task) error
	Find(ctx context.Context, id int64) (*Task, error)
	FindOwned(ctx context.Context, ownerID string, id int64) (*Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id int64) error
	DeleteByOwner(ctx context.Context, ownerID string) error
}

// Repository is the sole data-access surface for tasks. List, create and
// find are implicitly scoped to the bound principal; update and delete
// consult the policy against the task's actual owner regardless of scoping.
type Repository struct {
	store     Store
	policy    Policy
	principal string
}

// NewRepository returns an unbound repository. Call For before invoking any
// scoped operation.
func NewRepository(store Store) *Repository {
	return &Repository{store: store, policy: NewPolicy()}
}

// For returns a copy of the repository bound to the given principal. The
// receiver is left untouched so a shared unbound repository can be rebound
// per request.
func (r *Repository) For(principalID string) *Repository {
	bound := *r
	bound.principal = principalID
	return &bound
}

func (r *Repository) requirePrincipal() (string, error) {
	if r.principal == "" {
		return "", ErrNoPrincipal
	}
	return r.principal, nil
}

// ListAll returns every task owned by the bound principal, most recent first.
func (r *Repository) ListAll(ctx context.Context) ([]*Task, error) {
	principal, err := r.requirePrincipal()
	if err != nil {
		return nil, err
	}
	if !r.policy.Allows(principal, ActionViewAny, nil) {
		return nil, ErrNotAuthorized
	}
	return r.store.ListByOwner(ctx, principal)
}

// Create persists a new task owned by the bound principal. A blank
// description is stored as null, never as an empty string.
func (r *Repository) Create(ctx context.Context, in Input) (*Task, error) {
	principal, err := r.requirePrincipal()
	if err != nil {
		return nil, err
	}
	if !r.policy.Allows(principal, ActionCreate, nil) {
		return nil, ErrNotAuthorized
	}
	t := &Task{
		OwnerID:     principal,
		Title:       in.Title,
		Description: in.NormalizedDescription(),
	}
	if err := r.store.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// FindByID returns the task only if it exists and is owned by the bound
// principal. A foreign task yields ErrNotFound, not a denial.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Task, error) {
	principal, err := r.requirePrincipal()
	if err != nil {
		return nil, err
	}
	return r.store.FindOwned(ctx, principal, id)
}

// Find resolves a task by identifier alone. Callers passing the result to
// Update or Delete still go through the ownership policy.
func (r *Repository) Find(ctx context.Context, id int64) (*Task, error) {
	return r.store.Find(ctx, id)
}

// Update applies the input to the task after re-verifying ownership. On
// denial nothing is written.
func (r *Repository) Update(ctx context.Context, t *Task, in Input) error {
	principal, err := r.requirePrincipal()
	if err != nil {
		return err
	}
	if !r.policy.Allows(principal, ActionUpdate, t) {
		return ErrNotAuthorized
	}
	t.Title = in.Title
	t.Description = in.NormalizedDescription()
	return r.store.Update(ctx, t)
}

// Delete removes the task after re-verifying ownership.
func (r *Repository) Delete(ctx context.Context, t *Task) error {
	principal, err := r.requirePrincipal()
	if err != nil {
		return err
	}
	if !r.policy.Allows(principal, ActionDelete, t) {
		return ErrNotAuthorized
	}
	return r.store.Delete(ctx, t.ID)
}

// DeleteAllForOwner removes every task the owner has. Used by the account
// cascade for stores without foreign-key support.
func (r *Repository) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	return r.store.DeleteByOwner(ctx, ownerID)
}
