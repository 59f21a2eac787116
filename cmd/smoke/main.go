// Command smoke exercises a running taskhive-api instance end to end:
// two users, one task, and the ownership boundary between them.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

type session struct {
	base   string
	token  string
	client *http.Client
}

func main() {
	base := os.Getenv("TASKHIVE_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	suffix := rand.New(rand.NewSource(time.Now().UnixNano())).Int63()

	alice := signUp(client, base, fmt.Sprintf("smoke-alice-%d@example.com", suffix))
	bob := signUp(client, base, fmt.Sprintf("smoke-bob-%d@example.com", suffix))

	// Alice creates a task.
	status, body := alice.do(http.MethodPost, "/v1/tasks", map[string]any{"title": "smoke task"})
	if status != http.StatusCreated {
		log.Fatalf("create task: status %d", status)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		log.Fatalf("decode task: %v", err)
	}
	taskPath := fmt.Sprintf("/v1/tasks/%d", created.ID)

	// Bob sees an empty list and cannot touch Alice's task.
	status, body = bob.do(http.MethodGet, "/v1/tasks", nil)
	if status != http.StatusOK {
		log.Fatalf("bob list: status %d", status)
	}
	var list struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		log.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 0 {
		log.Fatalf("bob sees %d foreign tasks", len(list.Items))
	}

	if status, _ = bob.do(http.MethodGet, taskPath, nil); status != http.StatusNotFound {
		log.Fatalf("foreign read: expected 404, got %d", status)
	}
	if status, _ = bob.do(http.MethodPut, taskPath, map[string]any{"title": "hijacked"}); status != http.StatusForbidden {
		log.Fatalf("foreign update: expected 403, got %d", status)
	}
	if status, _ = bob.do(http.MethodDelete, taskPath, nil); status != http.StatusForbidden {
		log.Fatalf("foreign delete: expected 403, got %d", status)
	}

	// Alice still owns an intact task and may delete it.
	if status, _ = alice.do(http.MethodDelete, taskPath, nil); status != http.StatusNoContent {
		log.Fatalf("owner delete: expected 204, got %d", status)
	}

	fmt.Println("✅ taskhive-api smoke test passed")
}

func signUp(client *http.Client, base, email string) *session {
	s := &session{base: base, client: client}
	creds := map[string]any{"email": email, "password": "smoke-password"}

	status, _ := s.do(http.MethodPost, "/v1/auth/register", creds)
	if status != http.StatusCreated {
		log.Fatalf("register %s: status %d", email, status)
	}

	status, body := s.do(http.MethodPost, "/v1/auth/login", creds)
	if status != http.StatusOK {
		log.Fatalf("login %s: status %d", email, status)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Token == "" {
		log.Fatalf("login %s: no token (%v)", email, err)
	}
	s.token = payload.Token
	return s
}

func (s *session) do(method, path string, body any) (int, []byte) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, s.base+path, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp.StatusCode, buf.Bytes()
}
