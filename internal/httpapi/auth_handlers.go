package httpapi

import (
	"errors"
	"net/http"
	"time"

	"taskhive.org/internal/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *auth.User `json:"user"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	a.audit(r.Context(), "auth.user.register", "user", user.ID, map[string]string{
		"email": user.Email,
	})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, token, expiresAt, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	a.audit(r.Context(), "auth.login", "user", user.ID, nil)
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

// handleAccount serves the self-service account resource. Deleting it
// removes the user and, through the store cascade, every task they own.
func (a *API) handleAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}

	uid, ok := a.principal(w, r)
	if !ok {
		return
	}

	if err := a.auth.DeleteAccount(r.Context(), uid); err != nil {
		handleAuthError(w, r, err)
		return
	}

	a.audit(r.Context(), "auth.account.delete", "user", uid, nil)
	w.WriteHeader(http.StatusNoContent)
}

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, "email already registered")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "auth operation failed")
	}
}
