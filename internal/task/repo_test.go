package task

import (
	"context"
	"errors"
	"testing"
)

func strptr(s string) *string { return &s }

func TestListAllReturnsOnlyOwnedTasks(t *testing.T) {
	repo := NewRepository(NewInMemory())
	ctx := context.Background()

	first, err := repo.For("alice").Create(ctx, Input{Title: "Buy milk"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.For("alice").Create(ctx, Input{Title: "Walk dog"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.For("bob").Create(ctx, Input{Title: "Bob's task"}); err != nil {
		t.Fatal(err)
	}

	tasks, err := repo.For("alice").ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, got := range tasks {
		if got.OwnerID != "alice" {
			t.Fatalf("foreign task in listing: %+v", got)
		}
		if got.ID != first.ID && got.ID != second.ID {
			t.Fatalf("unexpected task id %d", got.ID)
		}
	}
}

func TestCreateAssignsBoundOwner(t *testing.T) {
	repo := NewRepository(NewInMemory())
	created, err := repo.For("alice").Create(context.Background(), Input{Title: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if created.OwnerID != "alice" {
		t.Fatalf("unexpected owner: %s", created.OwnerID)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}
}

func TestCreateNormalizesBlankDescription(t *testing.T) {
	repo := NewRepository(NewInMemory())
	ctx := context.Background()

	created, err := repo.For("alice").Create(ctx, Input{Title: "x", Description: strptr("")})
	if err != nil {
		t.Fatal(err)
	}
	if created.Description != nil {
		t.Fatalf("expected nil description, got %q", *created.Description)
	}

	stored, err := repo.For("alice").FindByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Description != nil {
		t.Fatalf("stored description not null: %q", *stored.Description)
	}

	kept, err := repo.For("alice").Create(ctx, Input{Title: "y", Description: strptr("  details  ")})
	if err != nil {
		t.Fatal(err)
	}
	if kept.Description == nil || *kept.Description != "details" {
		t.Fatalf("expected trimmed description, got %v", kept.Description)
	}
}

func TestFindByIDHidesForeignTasks(t *testing.T) {
	repo := NewRepository(NewInMemory())
	ctx := context.Background()

	bobs, err := repo.For("bob").Create(ctx, Input{Title: "Bob's task"})
	if err != nil {
		t.Fatal(err)
	}

	// Absence, not denial: a foreign task is indistinguishable from a
	// missing one on this path.
	if _, err := repo.For("alice").FindByID(ctx, bobs.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, err := repo.For("bob").FindByID(ctx, bobs.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != bobs.ID {
		t.Fatalf("unexpected task: %+v", got)
	}
}

func TestUpdateDeniedForForeignTask(t *testing.T) {
	store := NewInMemory()
	repo := NewRepository(store)
	ctx := context.Background()

	bobs, err := repo.For("bob").Create(ctx, Input{Title: "Initial", Description: strptr("keep")})
	if err != nil {
		t.Fatal(err)
	}

	err = repo.For("alice").Update(ctx, bobs, Input{Title: "Hijacked"})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}

	stored, err := store.Find(ctx, bobs.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "Initial" {
		t.Fatalf("task mutated after denial: %q", stored.Title)
	}
	if stored.Description == nil || *stored.Description != "keep" {
		t.Fatalf("description mutated after denial: %v", stored.Description)
	}
}

func TestUpdateAppliesPayloadForOwner(t *testing.T) {
	store := NewInMemory()
	repo := NewRepository(store)
	ctx := context.Background()

	created, err := repo.For("alice").Create(ctx, Input{Title: "Old", Description: strptr("old")})
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.For("alice").Update(ctx, created, Input{Title: "New", Description: strptr(" ")}); err != nil {
		t.Fatal(err)
	}

	stored, err := store.Find(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Title != "New" {
		t.Fatalf("title not updated: %q", stored.Title)
	}
	if stored.Description != nil {
		t.Fatalf("blank description should clear the field, got %q", *stored.Description)
	}
}

func TestDeleteDeniedForForeignTask(t *testing.T) {
	store := NewInMemory()
	repo := NewRepository(store)
	ctx := context.Background()

	bobs, err := repo.For("bob").Create(ctx, Input{Title: "Bob's task"})
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.For("alice").Delete(ctx, bobs); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if _, err := store.Find(ctx, bobs.ID); err != nil {
		t.Fatalf("task removed after denied delete: %v", err)
	}

	if err := repo.For("bob").Delete(ctx, bobs); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Find(ctx, bobs.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected task gone, got %v", err)
	}
}

func TestUnboundRepositoryFailsLoud(t *testing.T) {
	repo := NewRepository(NewInMemory())
	ctx := context.Background()

	if _, err := repo.ListAll(ctx); !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}
	if _, err := repo.Create(ctx, Input{Title: "x"}); !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}
	if _, err := repo.FindByID(ctx, 1); !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}
	if err := repo.Update(ctx, &Task{ID: 1}, Input{Title: "x"}); !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}
	if err := repo.Delete(ctx, &Task{ID: 1}); !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}
}

func TestForLeavesSharedRepositoryUnbound(t *testing.T) {
	repo := NewRepository(NewInMemory())
	_ = repo.For("alice")

	if _, err := repo.ListAll(context.Background()); !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("binding leaked into shared repository: %v", err)
	}
}

func TestDeleteByOwnerCascades(t *testing.T) {
	store := NewInMemory()
	repo := NewRepository(store)
	ctx := context.Background()

	if _, err := repo.For("alice").Create(ctx, Input{Title: "a1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.For("alice").Create(ctx, Input{Title: "a2"}); err != nil {
		t.Fatal(err)
	}
	bobs, err := repo.For("bob").Create(ctx, Input{Title: "b1"})
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteAllForOwner(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	remaining, err := repo.For("alice").ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Fatalf("orphaned tasks remain: %d", len(remaining))
	}
	if _, err := store.Find(ctx, bobs.ID); err != nil {
		t.Fatalf("cascade removed another owner's task: %v", err)
	}
}

func TestListAllOrdersMostRecentFirst(t *testing.T) {
	repo := NewRepository(NewInMemory())
	ctx := context.Background()

	older, err := repo.For("alice").Create(ctx, Input{Title: "older"})
	if err != nil {
		t.Fatal(err)
	}
	newer, err := repo.For("alice").Create(ctx, Input{Title: "newer"})
	if err != nil {
		t.Fatal(err)
	}

	tasks, err := repo.For("alice").ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 2 || tasks[0].ID != newer.ID || tasks[1].ID != older.ID {
		t.Fatalf("unexpected order: %v, %v", tasks[0].ID, tasks[1].ID)
	}
}
