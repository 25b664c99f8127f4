package backoffice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Options{HTTPClient: server.Client()})
	return client, server
}

// loginOK answers /login with a session cookie.
func loginOK(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/", HttpOnly: true})
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

// newTestSession logs in against a server whose mux serves /login with loginOK.
func newTestSession(t *testing.T, mux *http.ServeMux) *Session {
	t.Helper()
	mux.HandleFunc("/login", loginOK)
	client, server := newTestClient(t, mux)
	s, err := client.Login(context.Background(), server.URL, "qa@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return s
}
