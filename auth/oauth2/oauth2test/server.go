// Package oauth2test provides a fake Google and GitHub identity provider
// for tests.
package oauth2test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/authkit/auth/oauth2"
)

// User is an identity the fake provider hands out for a code.
type User struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// Server fakes the token and profile endpoints of both providers.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	codes  map[string]User
	tokens map[string]User
	forms  []map[string]string

	failProfile bool
}

// NewServer starts a fake provider closed at test cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{codes: map[string]User{}, tokens: map[string]User{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/google/token", s.token(false))
	mux.HandleFunc("/github/token", s.token(true))
	mux.HandleFunc("/google/userinfo", s.googleUser)
	mux.HandleFunc("/github/user", s.githubUser)
	mux.HandleFunc("/github/user/emails", s.githubEmails)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// AddCode registers an authorization code. Codes are single-use.
func (s *Server) AddCode(code string, u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = u
}

// SetFailProfile toggles 500 responses from the profile endpoints.
func (s *Server) SetFailProfile(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failProfile = fail
}

// TokenRequests returns the form bodies received by the token endpoints.
func (s *Server) TokenRequests() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.forms...)
}

// Config returns an oauth2 config with both providers pointed at s.
func (s *Server) Config() oauth2.Config {
	return oauth2.Config{
		Google: oauth2.ProviderConfig{
			ClientID:     "google-client",
			ClientSecret: "google-secret",
			RedirectURL:  "http://localhost/oauth2/callback",
			AuthURL:      s.URL + "/google/auth",
			TokenURL:     s.URL + "/google/token",
			UserInfoURL:  s.URL + "/google/userinfo",
		},
		GitHub: oauth2.ProviderConfig{
			ClientID:     "github-client",
			ClientSecret: "github-secret",
			RedirectURL:  "http://localhost/oauth2/callback",
			AuthURL:      s.URL + "/github/auth",
			TokenURL:     s.URL + "/github/token",
			UserInfoURL:  s.URL + "/github/user",
			EmailsURL:    s.URL + "/github/user/emails",
		},
	}
}

func (s *Server) token(okOnError bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		s.mu.Lock()
		s.forms = append(s.forms, form)
		code := r.PostForm.Get("code")
		u, ok := s.codes[code]
		delete(s.codes, code)
		token := "tok-" + code
		if ok {
			s.tokens[token] = u
		}
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			// GitHub reports a bad code with 200 and an error field.
			if !okOnError {
				w.WriteHeader(http.StatusBadRequest)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token, "token_type": "bearer"})
	}
}

func (s *Server) user(w http.ResponseWriter, r *http.Request) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failProfile {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return User{}, false
	}
	u, ok := s.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
	if !ok {
		http.Error(w, "bad token", http.StatusUnauthorized)
		return User{}, false
	}
	w.Header().Set("Content-Type", "application/json")
	return u, true
}

func (s *Server) googleUser(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id": u.Subject, "email": u.Email, "verified_email": u.EmailVerified, "name": u.Name,
	})
}

func (s *Server) githubUser(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	id, _ := strconv.ParseInt(u.Subject, 10, 64)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "login": u.Name, "email": nil})
}

func (s *Server) githubEmails(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode([]map[string]any{
		{"email": u.Email, "primary": true, "verified": u.EmailVerified},
	})
}
