package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestService(t *testing.T) (*Service, *Category) {
	t.Helper()
	svc, err := NewService(NewInMemory())
	if err != nil {
		t.Fatal(err)
	}
	cat, err := svc.CreateCategory(context.Background(), "Beverages")
	if err != nil {
		t.Fatal(err)
	}
	return svc, cat
}

func TestCreateProductValidation(t *testing.T) {
	svc, cat := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, ProductInput{Name: "", PriceMinor: 100, CategoryID: cat.ID}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := svc.CreateProduct(ctx, ProductInput{Name: "Tea", PriceMinor: 0, CategoryID: cat.ID}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero price, got %v", err)
	}
	if _, err := svc.CreateProduct(ctx, ProductInput{Name: "Tea", PriceMinor: 100, CategoryID: 999}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown category, got %v", err)
	}

	if _, err := svc.CreateProduct(ctx, ProductInput{Name: strings.Repeat("x", 256), PriceMinor: 100, CategoryID: cat.ID}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for 256-character name, got %v", err)
	}
	// The limit counts characters, not bytes.
	if _, err := svc.CreateProduct(ctx, ProductInput{Name: strings.Repeat("ч", 200), PriceMinor: 100, CategoryID: cat.ID}); err != nil {
		t.Fatalf("200-rune name must pass validation, got %v", err)
	}

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "  Tea  ", PriceMinor: 250, CategoryID: cat.ID})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Tea" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
}

func TestCreateProductRejectsDuplicateName(t *testing.T) {
	svc, cat := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, ProductInput{Name: "Coffee", PriceMinor: 300, CategoryID: cat.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateProduct(ctx, ProductInput{Name: "coffee", PriceMinor: 400, CategoryID: cat.ID}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestUpdateProduct(t *testing.T) {
	svc, cat := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Coffee", PriceMinor: 300, CategoryID: cat.ID})
	if err != nil {
		t.Fatal(err)
	}

	desc := "  single origin  "
	updated, err := svc.UpdateProduct(ctx, p.ID, ProductInput{Name: "Espresso", PriceMinor: 350, Description: &desc, CategoryID: cat.ID})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Espresso" || updated.PriceMinor != 350 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Description == nil || *updated.Description != "single origin" {
		t.Fatalf("description not normalized: %v", updated.Description)
	}

	if _, err := svc.UpdateProduct(ctx, 999, ProductInput{Name: "X", PriceMinor: 1, CategoryID: cat.ID}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCategoryCascadesToProducts(t *testing.T) {
	svc, cat := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, ProductInput{Name: "Coffee", PriceMinor: 300, CategoryID: cat.ID})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FindProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cascade to remove product, got %v", err)
	}
}

func TestProductPolicyIsUniform(t *testing.T) {
	policy := NewPolicy()
	target := &Product{ID: 1, Name: "Coffee"}

	for _, action := range []Action{ActionViewAny, ActionView, ActionCreate, ActionUpdate, ActionDelete} {
		if !policy.Allows("anyone", action, target) {
			t.Fatalf("action %d denied for authenticated principal", action)
		}
		if policy.Allows("", action, target) {
			t.Fatalf("action %d allowed for empty principal", action)
		}
	}
}
