package pg

import (
	"context"
	"database/sql"
	"errors"

	"taskhive.org/internal/auth"
	"taskhive.org/internal/ids"
)

// UserStore implements auth.UserStore on PostgreSQL. The owner-removal
// cascade is a foreign key (`tasks.owner_id ... on delete cascade`), so
// Delete is a single statement.
type UserStore struct {
	db *sql.DB
}

var _ auth.UserStore = (*UserStore)(nil)

// NewUserStore wraps the shared connection pool.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, u *auth.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	err := s.db.QueryRowContext(ctx, `
		insert into users(id, email, password_hash)
		values ($1, $2, $3)
		returning created_at, updated_at
	`, u.ID, u.Email, u.PasswordHash).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return auth.ErrConflict
	}
	return err
}

func (s *UserStore) Find(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, email, password_hash, created_at, updated_at
		from users where id = $1
	`, id)
	return scanUser(row)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, email, password_hash, created_at, updated_at
		from users where email = $1
	`, email)
	return scanUser(row)
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
