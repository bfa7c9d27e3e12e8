package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/auth/authtest"
	"github.com/kbukum/authkit/auth/oauth2"
	"github.com/kbukum/authkit/auth/oauth2/oauth2test"
	"github.com/kbukum/authkit/auth/session"
	apperrors "github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/server/handlers"
	"github.com/kbukum/authkit/server/middleware"
	"github.com/kbukum/authkit/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	t      *testing.T
	env    *authtest.Env
	router *gin.Engine
}

func newAPI(t *testing.T) *testAPI {
	t.Helper()
	env := authtest.New(t, authtest.Options{})
	router := gin.New()
	handlers.New(env.Service, logger.NewNop()).Register(router, nil)
	return &testAPI{t: t, env: env, router: router}
}

func (a *testAPI) do(method, target, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone)")
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code apperrors.ErrorCode) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (%s)", rr.Code, status, rr.Body.String())
	}
	if got := decode[apperrors.ErrorResponse](t, rr).Error.Code; got != code {
		t.Fatalf("code = %s, want %s", got, code)
	}
}

func (a *testAPI) signUpAndIn(email string) session.Tokens {
	a.t.Helper()
	creds := map[string]string{"email": email, "password": "password123"}
	if rr := a.do(http.MethodPost, "/sign-up", "", creds); rr.Code != http.StatusOK {
		a.t.Fatalf("sign-up: %d %s", rr.Code, rr.Body.String())
	}
	rr := a.do(http.MethodPost, "/sign-in", "", creds)
	if rr.Code != http.StatusOK {
		a.t.Fatalf("sign-in: %d %s", rr.Code, rr.Body.String())
	}
	return decode[session.Tokens](a.t, rr)
}

func TestSignUpAndSignIn(t *testing.T) {
	api := newAPI(t)
	creds := map[string]string{"email": "a@b.com", "password": "password123"}

	rr := api.do(http.MethodPost, "/sign-up", "", creds)
	if rr.Code != http.StatusOK {
		t.Fatalf("sign-up: %d %s", rr.Code, rr.Body.String())
	}
	account := decode[map[string]any](t, rr)
	if account["email"] != "a@b.com" || account["username"] != "a" || account["id"] == "" {
		t.Fatalf("account = %v", account)
	}
	for _, hidden := range []string{"password", "identify", "hash"} {
		if strings.Contains(strings.ToLower(rr.Body.String()), hidden) {
			t.Fatalf("account view leaks %q: %s", hidden, rr.Body.String())
		}
	}

	expectError(t, api.do(http.MethodPost, "/sign-up", "", creds), http.StatusConflict, apperrors.ErrCodeConflict)

	rr = api.do(http.MethodPost, "/sign-in", "", creds)
	if rr.Code != http.StatusOK {
		t.Fatalf("sign-in: %d %s", rr.Code, rr.Body.String())
	}
	tokens := decode[session.Tokens](t, rr)
	claims, err := api.env.Tokens.VerifyAccess(tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.AccountID() != account["id"] || claims.HasRole() {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestBadInput(t *testing.T) {
	api := newAPI(t)
	tests := []struct {
		name   string
		method string
		target string
		body   any
		status int
		code   apperrors.ErrorCode
	}{
		{"sign-up malformed json", http.MethodPost, "/sign-up", "{", http.StatusBadRequest, apperrors.ErrCodeBadRequest},
		{"sign-up invalid email", http.MethodPost, "/sign-up", map[string]string{"email": "nope", "password": "password123"}, http.StatusUnprocessableEntity, apperrors.ErrCodeValidation},
		{"sign-in no body", http.MethodPost, "/sign-in", nil, http.StatusBadRequest, apperrors.ErrCodeBadRequest},
		{"sign-in unknown email", http.MethodPost, "/sign-in", map[string]string{"email": "x@y.com", "password": "password123"}, http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"refresh empty", http.MethodPost, "/refresh-token", map[string]string{}, http.StatusUnprocessableEntity, apperrors.ErrCodeValidation},
		{"refresh garbage", http.MethodPost, "/refresh-token", map[string]string{"refresh_token": "garbage"}, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized},
		{"init unknown provider", http.MethodGet, "/oauth2/init?provider=MYSPACE", nil, http.StatusBadRequest, apperrors.ErrCodeBadRequest},
		{"init missing provider", http.MethodGet, "/oauth2/init", nil, http.StatusBadRequest, apperrors.ErrCodeBadRequest},
		{"callback unknown state", http.MethodGet, "/oauth2/callback?code=c&state=nope", nil, http.StatusBadRequest, apperrors.ErrCodeBadRequest},
		{"sign-out unauthenticated", http.MethodPost, "/sign-out", nil, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized},
		{"sessions unauthenticated", http.MethodGet, "/sessions", nil, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, api.do(tc.method, tc.target, "", tc.body), tc.status, tc.code)
		})
	}
}

func TestRefreshAndSignOut(t *testing.T) {
	api := newAPI(t)
	first := api.signUpAndIn("a@b.com")

	rr := api.do(http.MethodPost, "/refresh-token", "", map[string]string{"refresh_token": first.RefreshToken})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rr.Code, rr.Body.String())
	}
	second := decode[session.Tokens](t, rr)

	// The rotated-out refresh credential still has a valid signature but no session.
	expectError(t, api.do(http.MethodPost, "/refresh-token", "", map[string]string{"refresh_token": first.RefreshToken}),
		http.StatusUnauthorized, apperrors.ErrCodeUnauthorized)

	// An access credential is not a refresh credential.
	expectError(t, api.do(http.MethodPost, "/refresh-token", "", map[string]string{"refresh_token": second.AccessToken}),
		http.StatusUnauthorized, apperrors.ErrCodeUnauthorized)

	if rr := api.do(http.MethodPost, "/sign-out", second.AccessToken, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("sign-out: %d %s", rr.Code, rr.Body.String())
	}
	expectError(t, api.do(http.MethodPost, "/refresh-token", "", map[string]string{"refresh_token": second.RefreshToken}),
		http.StatusUnauthorized, apperrors.ErrCodeUnauthorized)
	expectError(t, api.do(http.MethodPost, "/sign-out", second.AccessToken, nil),
		http.StatusUnauthorized, apperrors.ErrCodeUnauthorized)
}

func TestSessions(t *testing.T) {
	api := newAPI(t)
	ctx := context.Background()
	tokens := api.signUpAndIn("a@b.com")

	rr := api.do(http.MethodGet, "/sessions", tokens.AccessToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rr.Code, rr.Body.String())
	}
	sessions := decode[[]map[string]any](t, rr)
	if len(sessions) != 1 {
		t.Fatalf("sessions = %v", sessions)
	}
	s := sessions[0]
	if s["ip_address"] != "198.51.100.4" || s["device_type"] != session.DeviceMobile {
		t.Fatalf("session metadata = %v", s)
	}
	if _, ok := s["jti"]; ok {
		t.Fatalf("session view exposes jti: %v", s)
	}

	// Another account cannot revoke it.
	other := api.signUpAndIn("c@d.com")
	sessionID, _ := s["id"].(string)
	expectError(t, api.do(http.MethodDelete, "/sessions/"+sessionID, other.AccessToken, nil),
		http.StatusNotFound, apperrors.ErrCodeNotFound)

	// An administrator can.
	otherClaims, err := api.env.Tokens.VerifyAccess(other.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if err := api.env.Store.Roles.Assign(ctx, otherClaims.AccountID(), store.RoleAdmin); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	rr = api.do(http.MethodPost, "/refresh-token", "", map[string]string{"refresh_token": other.RefreshToken})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rr.Code, rr.Body.String())
	}
	admin := decode[session.Tokens](t, rr)
	if rr := api.do(http.MethodDelete, "/sessions/"+sessionID, admin.AccessToken, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("admin revoke: %d %s", rr.Code, rr.Body.String())
	}

	expectError(t, api.do(http.MethodPost, "/refresh-token", "", map[string]string{"refresh_token": tokens.RefreshToken}),
		http.StatusUnauthorized, apperrors.ErrCodeUnauthorized)
}

func TestAdminSessions(t *testing.T) {
	api := newAPI(t)
	ctx := context.Background()
	user := api.signUpAndIn("a@b.com")
	userClaims, _ := api.env.Tokens.VerifyAccess(user.AccessToken)

	adminTokens := api.signUpAndIn("root@b.com")
	adminClaims, _ := api.env.Tokens.VerifyAccess(adminTokens.AccessToken)
	if err := api.env.Store.Roles.Assign(ctx, adminClaims.AccountID(), store.RoleAdmin); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	rr := api.do(http.MethodPost, "/refresh-token", "", map[string]string{"refresh_token": adminTokens.RefreshToken})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rr.Code, rr.Body.String())
	}
	adminTokens = decode[session.Tokens](t, rr)

	target := "/admin/sessions?account_id=" + url.QueryEscape(userClaims.AccountID())

	t.Run("no role is forbidden", func(t *testing.T) {
		expectError(t, api.do(http.MethodGet, target, user.AccessToken, nil), http.StatusForbidden, apperrors.ErrCodeForbidden)
	})
	t.Run("normal is forbidden", func(t *testing.T) {
		if err := api.env.Store.Roles.Assign(ctx, userClaims.AccountID(), store.RoleNormal); err != nil {
			t.Fatalf("Assign: %v", err)
		}
		rr := api.do(http.MethodPost, "/refresh-token", "", map[string]string{"refresh_token": user.RefreshToken})
		if rr.Code != http.StatusOK {
			t.Fatalf("refresh: %d %s", rr.Code, rr.Body.String())
		}
		normal := decode[session.Tokens](t, rr)
		expectError(t, api.do(http.MethodGet, target, normal.AccessToken, nil), http.StatusForbidden, apperrors.ErrCodeForbidden)
	})
	t.Run("unauthenticated", func(t *testing.T) {
		expectError(t, api.do(http.MethodGet, target, "", nil), http.StatusUnauthorized, apperrors.ErrCodeUnauthorized)
	})
	t.Run("admin", func(t *testing.T) {
		rr := api.do(http.MethodGet, target, adminTokens.AccessToken, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d (%s)", rr.Code, rr.Body.String())
		}
		if got := decode[[]map[string]any](t, rr); len(got) != 1 || got[0]["account_id"] != userClaims.AccountID() {
			t.Fatalf("sessions = %v", got)
		}
	})
	t.Run("admin without account_id", func(t *testing.T) {
		expectError(t, api.do(http.MethodGet, "/admin/sessions", adminTokens.AccessToken, nil),
			http.StatusUnprocessableEntity, apperrors.ErrCodeValidation)
	})
}

func TestOAuth2Flow(t *testing.T) {
	api := newAPI(t)

	rr := api.do(http.MethodGet, "/oauth2/init?provider=github", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("init: %d %s", rr.Code, rr.Body.String())
	}
	authz := decode[oauth2.Authorization](t, rr)
	u, err := url.Parse(authz.AuthorizationURL)
	if err != nil {
		t.Fatalf("parse authorization_url: %v", err)
	}
	if authz.State == "" || u.Query().Get("state") != authz.State {
		t.Fatalf("authorization = %+v", authz)
	}

	api.env.IdP.AddCode("code-1", oauth2test.User{Subject: "42", Email: "gh@b.com", EmailVerified: true, Name: "octo"})
	callback := "/oauth2/callback?" + url.Values{"code": {"code-1"}, "state": {authz.State}}.Encode()

	rr = api.do(http.MethodGet, callback, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("callback: %d %s", rr.Code, rr.Body.String())
	}
	tokens := decode[session.Tokens](t, rr)
	if _, err := api.env.Tokens.VerifyAccess(tokens.AccessToken); err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}

	// Replay.
	expectError(t, api.do(http.MethodGet, callback, "", nil), http.StatusBadRequest, apperrors.ErrCodeBadRequest)
}

func TestOAuth2CallbackFormPost(t *testing.T) {
	api := newAPI(t)

	rr := api.do(http.MethodGet, "/oauth2/init?provider=GOOGLE", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("init: %d %s", rr.Code, rr.Body.String())
	}
	authz := decode[oauth2.Authorization](t, rr)
	api.env.IdP.AddCode("code-2", oauth2test.User{Subject: "g-1", Email: "g@b.com", EmailVerified: true, Name: "g"})

	form := url.Values{"code": {"code-2"}, "state": {authz.State}}
	req := httptest.NewRequest(http.MethodPost, "/oauth2/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	api.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("callback: %d %s", rr.Code, rr.Body.String())
	}
}

func TestOAuth2CallbackProviderError(t *testing.T) {
	api := newAPI(t)
	authz := decode[oauth2.Authorization](t, api.do(http.MethodGet, "/oauth2/init?provider=GOOGLE", "", nil))

	denied := "/oauth2/callback?" + url.Values{"error": {"access_denied"}, "state": {authz.State}}.Encode()
	expectError(t, api.do(http.MethodGet, denied, "", nil), http.StatusBadRequest, apperrors.ErrCodeBadRequest)

	// The state was consumed by the failed attempt.
	api.env.IdP.AddCode("late", oauth2test.User{Subject: "g-2", Email: "late@b.com", EmailVerified: true})
	late := "/oauth2/callback?" + url.Values{"code": {"late"}, "state": {authz.State}}.Encode()
	expectError(t, api.do(http.MethodGet, late, "", nil), http.StatusBadRequest, apperrors.ErrCodeBadRequest)
}

func TestOversizedBodyIs413(t *testing.T) {
	env := authtest.New(t, authtest.Options{})
	router := gin.New()
	router.Use(middleware.GinBodySizeLimit("1KB"))
	handlers.New(env.Service, logger.NewNop()).Register(router, nil)

	body := `{"email":"big@example.com","password":"` + strings.Repeat("x", 4096) + `"}`
	tests := []struct {
		name          string
		contentLength int64
	}{
		{"declared length", int64(len(body))},
		{"chunked", -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sign-in", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.ContentLength = tc.contentLength
			if tc.contentLength < 0 {
				req.TransferEncoding = []string{"chunked"}
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			expectError(t, rr, http.StatusRequestEntityTooLarge, apperrors.ErrCodeBadRequest)
		})
	}
}
