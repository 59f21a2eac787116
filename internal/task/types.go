package task

import (
	"errors"
	"strings"
	"time"
)

// Task is a to-do item owned by exactly one user. The owner is set on
// creation and never reassigned.
type Task struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input carries the mutable task fields. Title is validated at the HTTP
// boundary; the repository still normalizes the description.
type Input struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// NormalizedDescription returns nil when the description is absent or blank.
// An empty string is never stored.
func (in Input) NormalizedDescription() *string {
	if in.Description == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*in.Description)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

var (
	// ErrNotFound is returned by scoped lookups when no owned task matches.
	// A task that exists but belongs to someone else is reported the same
	// way so its existence never leaks.
	ErrNotFound = errors.New("task: not found")

	// ErrNotAuthorized is returned when the policy denies an action on a
	// resolved task.
	ErrNotAuthorized = errors.New("task: not authorized")

	// ErrNoPrincipal reports a scoped operation invoked before For. This is
	// a programming error, not a user-facing condition; callers must not
	// translate it into a 4xx response.
	ErrNoPrincipal = errors.New("task: no principal bound")
)
