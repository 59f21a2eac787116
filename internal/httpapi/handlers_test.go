package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"taskhive.org/internal/auth"
	"taskhive.org/internal/catalog"
	"taskhive.org/internal/events"
	"taskhive.org/internal/task"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	t.Setenv("TASKHIVE_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()

	taskStore := task.NewInMemory()
	users := auth.NewInMemoryUsers()
	users.OnDelete(func(userID string) {
		_ = taskStore.DeleteByOwner(context.Background(), userID)
	})
	authSvc, err := auth.NewService(users)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	catSvc, err := catalog.NewService(catalog.NewInMemory())
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}

	api := New(ReadyProbe{}, "test", task.NewRepository(taskStore), catSvc, authSvc, events.New())
	api.rateBurst = 100
	api.ratePerSec = 100

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

// signUp registers a user and returns a bearer header for them.
func (c *apiClient) signUp(email string) map[string]string {
	c.t.Helper()
	resp := c.post("/v1/auth/register", map[string]any{
		"email":    email,
		"password": "correct horse",
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("unexpected register status: %d", resp.StatusCode)
	}
	resp = c.post("/v1/auth/login", map[string]any{
		"email":    email,
		"password": "correct horse",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode login response: %v", err)
	}
	if payload.Token == "" {
		c.t.Fatalf("empty token issued")
	}
	return map[string]string{"Authorization": "Bearer " + payload.Token}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestTaskOwnershipIsolation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp("alice@example.com")
	bob := api.signUp("bob@example.com")

	// Alice creates a task; the description is omitted and stays null.
	resp := api.post("/v1/tasks", map[string]any{"title": "Buy milk"}, alice)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	created := decode[map[string]any](t, resp)
	if created["description"] != nil {
		t.Fatalf("expected null description, got %v", created["description"])
	}
	taskID := created["id"].(float64)
	taskPath := "/v1/tasks/" + itoa(int64(taskID))

	// Bob's listing does not contain it.
	resp = api.get("/v1/tasks", nil, bob)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	bobList := decode[map[string][]map[string]any](t, resp)
	if len(bobList["items"]) != 0 {
		t.Fatalf("expected empty list for bob, got %d items", len(bobList["items"]))
	}

	// Bob cannot read it: 404, not 403, so existence does not leak.
	resp = api.get(taskPath, nil, bob)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign read, got %d", resp.StatusCode)
	}

	// Bob cannot update it: 403, and the row is untouched.
	resp = api.do(http.MethodPut, taskPath, map[string]any{"title": "Hijacked"}, bob)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign update, got %d", resp.StatusCode)
	}
	resp = api.get(taskPath, nil, alice)
	got := decode[map[string]any](t, resp)
	if got["title"] != "Buy milk" {
		t.Fatalf("foreign update modified the task: %v", got["title"])
	}

	// Bob cannot delete it either.
	resp = api.do(http.MethodDelete, taskPath, nil, bob)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign delete, got %d", resp.StatusCode)
	}

	// Alice can.
	resp = api.do(http.MethodDelete, taskPath, nil, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp = api.get(taskPath, nil, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestTaskUpdateNormalizesDescription(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp("alice@example.com")

	resp := api.post("/v1/tasks", map[string]any{
		"title":       "Write report",
		"description": "  quarterly numbers  ",
	}, alice)
	created := decode[map[string]any](t, resp)
	if created["description"] != "quarterly numbers" {
		t.Fatalf("expected trimmed description, got %v", created["description"])
	}

	taskPath := "/v1/tasks/" + itoa(int64(created["id"].(float64)))
	resp = api.do(http.MethodPut, taskPath, map[string]any{
		"title":       "Write report",
		"description": "   ",
	}, alice)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["description"] != nil {
		t.Fatalf("blank description must clear to null, got %v", updated["description"])
	}
}

func TestTaskValidation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp("alice@example.com")

	resp := api.post("/v1/tasks", map[string]any{"title": "   "}, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank title, got %d", resp.StatusCode)
	}

	resp = api.post("/v1/tasks", map[string]any{"title": strings.Repeat("a", maxTitleLength+1)}, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized title, got %d", resp.StatusCode)
	}

	// The limit counts characters, not bytes: 200 two-byte runes fit.
	resp = api.post("/v1/tasks", map[string]any{"title": strings.Repeat("ы", 200)}, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for 200-rune title, got %d", resp.StatusCode)
	}

	resp = api.post("/v1/tasks", map[string]any{"title": strings.Repeat("ы", maxTitleLength+1)}, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for %d-rune title, got %d", maxTitleLength+1, resp.StatusCode)
	}
}

func TestAPIEnforcesAuth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/v1/tasks", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var errBody map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if errBody["error"] == "" {
		t.Fatalf("expected error message")
	}
}

func TestRegisterValidationAndConflict(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/auth/register", map[string]any{"email": "not-an-email", "password": "long enough"}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	api.signUp("alice@example.com")
	resp = api.post("/v1/auth/register", map[string]any{"email": "alice@example.com", "password": "long enough"}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t)
	api.signUp("alice@example.com")

	resp := api.post("/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong password",
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAccountDeleteCascadesTasks(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp("alice@example.com")

	resp := api.post("/v1/tasks", map[string]any{"title": "Orphan me"}, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	resp = api.do(http.MethodDelete, "/v1/account", nil, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// Same email can register again and sees no leftover tasks.
	alice2 := api.signUp("alice@example.com")
	resp = api.get("/v1/tasks", nil, alice2)
	list := decode[map[string][]map[string]any](t, resp)
	if len(list["items"]) != 0 {
		t.Fatalf("expected cascade to remove tasks, found %d", len(list["items"]))
	}
}

func TestCatalogFlow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp("alice@example.com")
	bob := api.signUp("bob@example.com")

	resp := api.post("/v1/categories", map[string]any{"name": "Dairy"}, alice)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	cat := decode[map[string]any](t, resp)
	catID := int64(cat["id"].(float64))

	resp = api.post("/v1/categories", map[string]any{"name": "dairy"}, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d", resp.StatusCode)
	}

	resp = api.post("/v1/products", map[string]any{
		"name":        "Milk",
		"price_minor": 250,
		"category_id": catID,
	}, alice)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	prod := decode[map[string]any](t, resp)
	prodPath := "/v1/products/" + itoa(int64(prod["id"].(float64)))

	// The catalog is shared: any authenticated user can read and write.
	resp = api.get(prodPath, nil, bob)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected shared read, got %d", resp.StatusCode)
	}
	resp = api.do(http.MethodPut, prodPath, map[string]any{
		"name":        "Whole milk",
		"price_minor": 300,
		"category_id": catID,
	}, bob)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected shared update, got %d", resp.StatusCode)
	}

	resp = api.post("/v1/products", map[string]any{
		"name":        "Free milk",
		"price_minor": 0,
		"category_id": catID,
	}, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive price, got %d", resp.StatusCode)
	}

	// Deleting the category takes its products with it.
	resp = api.do(http.MethodDelete, "/v1/categories/"+itoa(catID), nil, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp = api.get(prodPath, nil, alice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected product gone with category, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["service"] != "taskhive-api" {
		t.Fatalf("unexpected service name: %v", body["service"])
	}

	resp = api.get("/readyz", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
