package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erp/receipt/internal/infrastructure/auth"
	"github.com/erp/receipt/internal/infrastructure/config"
	"github.com/erp/receipt/internal/interfaces/http/dto"
	"github.com/erp/receipt/internal/interfaces/http/middleware"
	"github.com/erp/receipt/internal/interfaces/http/router"
)

const terminalSecret = "caixa-secret-01"

type authFixture struct {
	engine    *gin.Engine
	blacklist *auth.InMemoryTokenBlacklist
}

func newAuthFixture(t *testing.T, withBlacklist bool) *authFixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(terminalSecret), bcrypt.MinCost)
	require.NoError(t, err)
	terminals, err := auth.NewTerminalAuthenticator([]config.TerminalConfig{
		{ID: "caixa-1", SecretHash: string(hash)},
	})
	require.NoError(t, err)

	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Enabled:               true,
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "receipt-test",
	})

	f := &authFixture{engine: gin.New()}
	var blacklist auth.TokenBlacklist
	if withBlacklist {
		f.blacklist = auth.NewInMemoryTokenBlacklist()
		blacklist = f.blacklist
	}

	authMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtSvc,
		TokenBlacklist: blacklist,
	})
	h := NewAuthHandler(terminals, jwtSvc, blacklist, nil)

	protected := router.NewDomainGroup("protected", "/protected").
		Use(authMiddleware).
		GET("", func(c *gin.Context) { c.String(http.StatusOK, middleware.GetTerminalID(c)) })

	router.NewRouter(f.engine).
		Register(AuthRoutes(h, authMiddleware)).
		Register(protected).
		Setup()
	return f
}

func (f *authFixture) post(path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *authFixture) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *authFixture) issue(t *testing.T) string {
	t.Helper()
	w := f.post("/api/v1/auth/token", "", TokenRequest{TerminalID: "caixa-1", Secret: terminalSecret})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp APIResponse[TokenResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Data.AccessToken
}

func TestAuthHandler_IssueToken(t *testing.T) {
	f := newAuthFixture(t, false)

	w := f.post("/api/v1/auth/token", "", TokenRequest{TerminalID: "caixa-1", Secret: terminalSecret})
	require.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse[TokenResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.Data.TokenType)
	assert.Equal(t, "caixa-1", resp.Data.TerminalID)
	assert.True(t, resp.Data.ExpiresAt.After(time.Now()))

	w = f.get("/api/v1/protected", resp.Data.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "caixa-1", w.Body.String())
}

func TestAuthHandler_IssueTokenRejected(t *testing.T) {
	f := newAuthFixture(t, false)
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"wrong secret", TokenRequest{TerminalID: "caixa-1", Secret: "not-the-secret"}, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"unknown terminal", TokenRequest{TerminalID: "caixa-9", Secret: terminalSecret}, http.StatusUnauthorized, dto.ErrCodeInvalidCredentials},
		{"missing terminal", map[string]string{"secret": terminalSecret}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"short secret", TokenRequest{TerminalID: "caixa-1", Secret: "short"}, http.StatusBadRequest, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.post("/api/v1/auth/token", "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestAuthHandler_RevokeToken(t *testing.T) {
	f := newAuthFixture(t, true)
	token := f.issue(t)

	w := f.post("/api/v1/auth/revoke", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.get("/api/v1/protected", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decodeResponse(t, w).Error.Code)
}

func TestAuthHandler_RevokeAllTerminalTokens(t *testing.T) {
	f := newAuthFixture(t, true)
	first := f.issue(t)
	second := f.issue(t)

	w := f.post("/api/v1/auth/revoke", first, RevokeRequest{AllTokens: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, token := range []string{first, second} {
		w = f.get("/api/v1/protected", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// iat has second precision
	time.Sleep(1100 * time.Millisecond)
	fresh := f.issue(t)
	w = f.get("/api/v1/protected", fresh)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_RevokeRequiresToken(t *testing.T) {
	f := newAuthFixture(t, true)
	w := f.post("/api/v1/auth/revoke", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RevokeWithoutBlacklist(t *testing.T) {
	f := newAuthFixture(t, false)
	token := f.issue(t)

	w := f.post("/api/v1/auth/revoke", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeServiceUnavailable, decodeResponse(t, w).Error.Code)
}
