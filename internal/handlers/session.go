package handlers

import (
	"errors"
	"net/http"
	"strings"

	applog "sagradodoce/internal/log"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Session signs operators in (POST), reports the current operator (GET) and
// signs them out (DELETE).
func Session(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "handling session request", "method", r.Method)

	switch r.Method {
	case http.MethodGet:
		userID, ok := currentUserID(r)
		if !ok || !ActiveSession(r) {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{
			UserID: userID,
			Email:  sessionManager.GetString(r.Context(), sessionUserEmailKey),
			Name:   sessionManager.GetString(r.Context(), sessionUserNameKey),
		})
	case http.MethodPost:
		login(w, r)
	case http.MethodDelete:
		if sessionManager != nil {
			if err := sessionManager.Destroy(r.Context()); err != nil {
				applog.Error(r.Context(), "failed to destroy session", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "unable to sign out")
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sessionManager == nil || database == nil {
		applog.Debug(ctx, "authentication dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
		writeJSONError(w, http.StatusServiceUnavailable, "authentication not available")
		return
	}

	var payload loginRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" || payload.Password == "" {
		applog.Debug(ctx, "login missing credentials", "emailPresent", email != "", "passwordPresent", payload.Password != "")
		writeJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := authenticate(r, email, payload.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			applog.Debug(ctx, "authentication failed", "email", strings.ToLower(email))
			writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		applog.Error(ctx, "failed to authenticate operator", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to sign in")
		return
	}

	applog.Info(ctx, "operator signed in", "user", user.ID)
	writeJSON(w, http.StatusOK, sessionResponse{UserID: user.ID, Email: user.Email, Name: user.Name})
}
