package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// sessionClient replays the session cookie between requests the way a browser would.
type sessionClient struct {
	handler http.Handler
	cookies []*http.Cookie
}

func (c *sessionClient) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestSessionLifecycle(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	svc, cleanup := withTestService(t)
	t.Cleanup(cleanup)
	user := seedOperator(t, svc.DB(), "caixa@example.com", "brigadeiro")

	client := &sessionClient{handler: sm.LoadAndSave(http.HandlerFunc(Session))}

	if w := client.do(http.MethodGet, "/api/session", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before sign in, got %d", w.Code)
	}

	w := client.do(http.MethodPost, "/api/session", `{"email":"caixa@example.com","password":"brigadeiro"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on sign in, got %d: %s", w.Code, w.Body.String())
	}
	signedIn := decodeBody[sessionResponse](t, w)
	if signedIn.UserID != user.ID || signedIn.Email != "caixa@example.com" {
		t.Fatalf("unexpected sign in response %+v", signedIn)
	}
	if len(client.cookies) == 0 {
		t.Fatal("expected a session cookie after sign in")
	}

	w = client.do(http.MethodGet, "/api/session", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for current session, got %d", w.Code)
	}
	if current := decodeBody[sessionResponse](t, w); current.Name != "Operator" {
		t.Fatalf("expected operator name from session, got %+v", current)
	}

	if w := client.do(http.MethodDelete, "/api/session", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on sign out, got %d", w.Code)
	}
	if w := client.do(http.MethodGet, "/api/session", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after sign out, got %d", w.Code)
	}
}

func TestSessionSignInRejections(t *testing.T) {
	sm, smCleanup := withTestSessionManager(t)
	t.Cleanup(smCleanup)
	svc, cleanup := withTestService(t)
	t.Cleanup(cleanup)
	seedOperator(t, svc.DB(), "caixa@example.com", "brigadeiro")

	handler := sm.LoadAndSave(http.HandlerFunc(Session))

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"missing password", http.MethodPost, `{"email":"caixa@example.com"}`, http.StatusBadRequest},
		{"malformed payload", http.MethodPost, `{"email":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, `{"email":"caixa@example.com","password":"x","remember":true}`, http.StatusBadRequest},
		{"wrong password", http.MethodPost, `{"email":"caixa@example.com","password":"quindim"}`, http.StatusUnauthorized},
		{"unknown operator", http.MethodPost, `{"email":"nobody@example.com","password":"brigadeiro"}`, http.StatusUnauthorized},
		{"unsupported method", http.MethodPatch, "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, "/api/session", strings.NewReader(tt.body)))
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestSessionSignInUnavailable(t *testing.T) {
	w := httptest.NewRecorder()
	Session(w, httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(`{"email":"a@b.c","password":"x"}`)))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without dependencies, got %d", w.Code)
	}
}
