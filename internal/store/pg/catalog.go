package pg

import (
	"context"
	"database/sql"
	"errors"

	"taskhive.org/internal/catalog"
)

// CatalogStore implements catalog.Store on PostgreSQL. Category removal
// cascades to products through the foreign key.
type CatalogStore struct {
	db *sql.DB
}

var _ catalog.Store = (*CatalogStore)(nil)

// NewCatalogStore wraps the shared connection pool.
func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) InsertCategory(ctx context.Context, c *catalog.Category) error {
	err := s.db.QueryRowContext(ctx, `
		insert into categories(name)
		values ($1)
		returning id, created_at, updated_at
	`, c.Name).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return catalog.ErrConflict
	}
	return err
}

func (s *CatalogStore) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, created_at, updated_at
		from categories order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &c)
	}
	return res, rows.Err()
}

func (s *CatalogStore) FindCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	var c catalog.Category
	err := s.db.QueryRowContext(ctx, `
		select id, name, created_at, updated_at
		from categories where id = $1
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CatalogStore) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from categories where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *CatalogStore) InsertProduct(ctx context.Context, p *catalog.Product) error {
	err := s.db.QueryRowContext(ctx, `
		insert into products(name, price_minor, description, category_id)
		values ($1, $2, $3, $4)
		returning id, created_at, updated_at
	`, p.Name, p.PriceMinor, p.Description, p.CategoryID).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return catalog.ErrConflict
	}
	return err
}

func (s *CatalogStore) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, price_minor, description, category_id, created_at, updated_at
		from products order by id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceMinor, &p.Description, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &p)
	}
	return res, rows.Err()
}

func (s *CatalogStore) FindProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	var p catalog.Product
	err := s.db.QueryRowContext(ctx, `
		select id, name, price_minor, description, category_id, created_at, updated_at
		from products where id = $1
	`, id).Scan(&p.ID, &p.Name, &p.PriceMinor, &p.Description, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *CatalogStore) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	err := s.db.QueryRowContext(ctx, `
		update products
		set name = $2, price_minor = $3, description = $4, category_id = $5, updated_at = now()
		where id = $1
		returning updated_at
	`, p.ID, p.Name, p.PriceMinor, p.Description, p.CategoryID).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ErrNotFound
	}
	if isUniqueViolation(err) {
		return catalog.ErrConflict
	}
	return err
}

func (s *CatalogStore) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from products where id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
