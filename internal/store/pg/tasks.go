package pg

import (
	"context"
	"database/sql"
	"errors"

	"taskhive.org/internal/task"
)

// TaskStore implements task.Store on PostgreSQL. Ownership scoping happens
// in the queries themselves: a scoped lookup never sees another owner's row.
type TaskStore struct {
	db *sql.DB
}

var _ task.Store = (*TaskStore)(nil)

// NewTaskStore wraps the shared connection pool.
func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func (s *TaskStore) Insert(ctx context.Context, t *task.Task) error {
	return s.db.QueryRowContext(ctx, `
		insert into tasks(owner_id, title, description)
		values ($1, $2, $3)
		returning id, created_at, updated_at
	`, t.OwnerID, t.Title, t.Description).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (s *TaskStore) Find(ctx context.Context, id int64) (*task.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, owner_id, title, description, created_at, updated_at
		from tasks where id = $1
	`, id)
	return scanTask(row)
}

func (s *TaskStore) FindOwned(ctx context.Context, ownerID string, id int64) (*task.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, owner_id, title, description, created_at, updated_at
		from tasks where id = $1 and owner_id = $2
	`, id, ownerID)
	return scanTask(row)
}

func (s *TaskStore) ListByOwner(ctx context.Context, ownerID string) ([]*task.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, owner_id, title, description, created_at, updated_at
		from tasks where owner_id = $1
		order by created_at desc, id desc
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*task.Task
	for rows.Next() {
		var t task.Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &t)
	}
	return res, rows.Err()
}

func (s *TaskStore) Update(ctx context.Context, t *task.Task) error {
	err := s.db.QueryRowContext(ctx, `
		update tasks set title = $2, description = $3, updated_at = now()
		where id = $1
		returning updated_at
	`, t.ID, t.Title, t.Description).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return task.ErrNotFound
	}
	return err
}

func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from tasks where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (s *TaskStore) DeleteByOwner(ctx context.Context, ownerID string) error {
	_, err := s.db.ExecContext(ctx, `delete from tasks where owner_id = $1`, ownerID)
	return err
}

func scanTask(row *sql.Row) (*task.Task, error) {
	var t task.Task
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, task.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
