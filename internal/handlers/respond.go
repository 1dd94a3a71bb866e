package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sagradodoce/internal/bakery"
	applog "sagradodoce/internal/log"
	"sagradodoce/internal/metrics"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps a bakery error onto its HTTP status. Storage failures are
// logged and reported without driver detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, kind := classify(err)
	metrics.OperationErrors.WithLabelValues(kind).Inc()

	message := err.Error()
	if status == http.StatusInternalServerError {
		applog.Error(r.Context(), "bakery operation failed", "op", op, "error", err)
		message = "unable to " + op
	} else {
		applog.Debug(r.Context(), "bakery operation rejected", "op", op, "kind", kind, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, bakery.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, bakery.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, bakery.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock"
	case errors.Is(err, bakery.ErrReferentialIntegrity):
		return http.StatusConflict, "referential_integrity"
	case errors.Is(err, bakery.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	default:
		return http.StatusInternalServerError, "storage"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		applog.Debug(r.Context(), "invalid request payload", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

// requireService answers 503 when the handlers were not configured.
func requireService(w http.ResponseWriter, r *http.Request) bool {
	if service == nil {
		applog.Debug(r.Context(), "request without bakery service", "path", r.URL.Path)
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return false
	}
	return true
}

// resourcePath splits what follows prefix into segments, e.g. "/api/sales/4/pay"
// with prefix "/api/sales" gives ["4", "pay"].
func resourcePath(r *http.Request, prefix string) []string {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func parseID(value string) (uint, bool) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// wantsHTML reports whether the caller asked for the printable rendering.
func wantsHTML(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func parseDateParam(r *http.Request, name string) (time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func recordShortages(shortages []bakery.Shortage) {
	for _, shortage := range shortages {
		metrics.ShortageCounter.WithLabelValues(shortage.Name).Inc()
	}
}
