package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"taskhive.org/internal/events"
	"taskhive.org/internal/task"
)

const maxTitleLength = 255

type taskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func (req taskRequest) validate() (task.Input, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return task.Input{}, errors.New("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return task.Input{}, fmt.Errorf("title must be <=%d characters", maxTitleLength)
	}
	return task.Input{Title: title, Description: req.Description}, nil
}

func (a *API) handleTasksCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTasks(w, r)
	case http.MethodPost:
		a.createTask(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTaskResource(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/v1/tasks/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusNotFound, "task not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getTask(w, r, id)
	case http.MethodPut:
		a.updateTask(w, r, id)
	case http.MethodDelete:
		a.deleteTask(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listTasks(w http.ResponseWriter, r *http.Request) {
	uid, ok := a.principal(w, r)
	if !ok {
		return
	}
	items, err := a.tasks.For(uid).ListAll(r.Context())
	if err != nil {
		handleTaskError(w, r, err)
		return
	}
	if items == nil {
		items = []*task.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createTask(w http.ResponseWriter, r *http.Request) {
	uid, ok := a.principal(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.validate()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t, err := a.tasks.For(uid).Create(r.Context(), in)
	if err != nil {
		handleTaskError(w, r, err)
		return
	}

	a.audit(r.Context(), "task.create", "task", strconv.FormatInt(t.ID, 10), map[string]string{
		"title": t.Title,
	})
	a.publishTaskEvent(events.TaskCreated, t)

	w.Header().Set("Location", "/v1/tasks/"+strconv.FormatInt(t.ID, 10))
	writeJSON(w, http.StatusCreated, t)
}

// getTask resolves through the owner-scoped lookup: a task that belongs to
// someone else is indistinguishable from a missing one.
func (a *API) getTask(w http.ResponseWriter, r *http.Request, id int64) {
	uid, ok := a.principal(w, r)
	if !ok {
		return
	}
	t, err := a.tasks.For(uid).FindByID(r.Context(), id)
	if err != nil {
		handleTaskError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// updateTask resolves the row unscoped, then lets the repository policy
// decide. A foreign task is a 403 here, not a 404: the write was attempted
// against a real resource and the denial must leave it untouched.
func (a *API) updateTask(w http.ResponseWriter, r *http.Request, id int64) {
	uid, ok := a.principal(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.validate()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	t, err := a.tasks.Find(r.Context(), id)
	if err != nil {
		handleTaskError(w, r, err)
		return
	}
	if err := a.tasks.For(uid).Update(r.Context(), t, in); err != nil {
		handleTaskError(w, r, err)
		return
	}

	a.audit(r.Context(), "task.update", "task", strconv.FormatInt(t.ID, 10), map[string]string{
		"title": t.Title,
	})
	a.publishTaskEvent(events.TaskUpdated, t)

	writeJSON(w, http.StatusOK, t)
}

func (a *API) deleteTask(w http.ResponseWriter, r *http.Request, id int64) {
	uid, ok := a.principal(w, r)
	if !ok {
		return
	}

	t, err := a.tasks.Find(r.Context(), id)
	if err != nil {
		handleTaskError(w, r, err)
		return
	}
	if err := a.tasks.For(uid).Delete(r.Context(), t); err != nil {
		handleTaskError(w, r, err)
		return
	}

	a.audit(r.Context(), "task.delete", "task", strconv.FormatInt(id, 10), nil)
	a.publishTaskEvent(events.TaskDeleted, t)

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) publishTaskEvent(kind events.Kind, t *task.Task) {
	if a.stream == nil {
		return
	}
	a.stream.Publish(events.TaskEvent{
		Kind:      kind,
		TaskID:    t.ID,
		OwnerID:   t.OwnerID,
		Title:     t.Title,
		Timestamp: time.Now().UTC(),
	})
}

func handleTaskError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "task not found")
	case errors.Is(err, task.ErrNotAuthorized):
		writeError(w, r, http.StatusForbidden, "not allowed")
	default:
		writeError(w, r, http.StatusInternalServerError, "task operation failed")
	}
}
