package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// --- テスト ---

func newGoogleTestServer(t *testing.T, userInfoStatus int, userInfoBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse token request form: %v", err)
		}
		if got := r.PostForm.Get("code"); got != "code-1" {
			t.Errorf("token request code = %q, want %q", got, "code-1")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer at-123" {
			t.Errorf("userinfo Authorization = %q, want %q", got, "Bearer at-123")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userInfoStatus)
		w.Write([]byte(userInfoBody))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestGoogleProvider(server *httptest.Server) *GoogleProvider {
	return NewGoogleProvider(GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://api.example.com/api/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  server.URL + "/auth",
			TokenURL: server.URL + "/token",
		},
		UserInfoURL: server.URL + "/userinfo",
	})
}

func TestGoogleProviderAuthURL(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{
		ClientID:    "client-id",
		RedirectURL: "https://api.example.com/api/auth/google/callback",
	})

	raw := p.AuthURL("state-blob")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse auth URL: %v", err)
	}
	q := u.Query()
	if got := q.Get("state"); got != "state-blob" {
		t.Errorf("state = %q, want %q", got, "state-blob")
	}
	if got := q.Get("client_id"); got != "client-id" {
		t.Errorf("client_id = %q, want %q", got, "client-id")
	}
	if scope := q.Get("scope"); !strings.Contains(scope, "email") {
		t.Errorf("scope = %q, want it to contain email", scope)
	}
}

func TestGoogleProviderExchange(t *testing.T) {
	server := newGoogleTestServer(t, http.StatusOK,
		`{"sub":"g-123","email":"hanako@example.com","name":"佐藤花子","picture":"https://lh3.example.com/photo.jpg"}`)
	p := newTestGoogleProvider(server)

	info, err := p.Exchange(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if info.Provider != "google" {
		t.Errorf("Provider = %q, want %q", info.Provider, "google")
	}
	if info.ProviderUserID != "g-123" {
		t.Errorf("ProviderUserID = %q, want %q", info.ProviderUserID, "g-123")
	}
	if info.Email != "hanako@example.com" {
		t.Errorf("Email = %q, want %q", info.Email, "hanako@example.com")
	}
	if info.Name != "佐藤花子" {
		t.Errorf("Name = %q, want %q", info.Name, "佐藤花子")
	}
}

func TestGoogleProviderExchangeUserInfoError(t *testing.T) {
	server := newGoogleTestServer(t, http.StatusForbidden, `{"error":"forbidden"}`)
	p := newTestGoogleProvider(server)

	if _, err := p.Exchange(context.Background(), "code-1"); err == nil {
		t.Error("Exchange() error = nil, want error for non-200 userinfo")
	}
}

func TestGoogleProviderExchangeMissingSubject(t *testing.T) {
	server := newGoogleTestServer(t, http.StatusOK, `{"email":"hanako@example.com"}`)
	p := newTestGoogleProvider(server)

	if _, err := p.Exchange(context.Background(), "code-1"); err == nil {
		t.Error("Exchange() error = nil, want error for missing subject")
	}
}

func TestGoogleProviderExchangeBadCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	p := newTestGoogleProvider(server)

	if _, err := p.Exchange(context.Background(), "expired-code"); err == nil {
		t.Error("Exchange() error = nil, want error for rejected code")
	}
}
