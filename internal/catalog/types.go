package catalog

import (
	"errors"
	"time"
)

// Category groups products.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product belongs to exactly one category. Prices are minor units (cents);
// no floats.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PriceMinor  int64     `json:"price_minor"`
	Description *string   `json:"description"`
	CategoryID  int64     `json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductInput carries the mutable product fields.
type ProductInput struct {
	Name        string  `json:"name"`
	PriceMinor  int64   `json:"price_minor"`
	Description *string `json:"description"`
	CategoryID  int64   `json:"category_id"`
}

var (
	ErrNotFound     = errors.New("catalog: not found")
	ErrConflict     = errors.New("catalog: already exists")
	ErrInvalidInput = errors.New("catalog: invalid input")
)
