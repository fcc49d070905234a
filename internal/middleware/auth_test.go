package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute, 24*time.Hour)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email string) string {
	t.Helper()
	pair, err := jwtSvc.GenerateTokenPair(userID, email)
	require.NoError(t, err)
	return pair.AccessToken
}

func protectedApp(jwtSvc *services.JWTService, handler drift.HandlerFunc) http.Handler {
	app := drift.New()
	app.Use(Auth(jwtSvc))
	app.Get("/protected", handler)
	return app
}

func okHandler(c *drift.Context) {
	_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func TestAuth_MissingAuthorizationHeader(t *testing.T) {
	app := protectedApp(newTestJWTService(), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing or malformed authorization header")
}

func TestAuth_MalformedHeader(t *testing.T) {
	app := protectedApp(newTestJWTService(), okHandler)

	for _, header := range []string{"Token some-token", "Bearer"} {
		t.Run(header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "missing or malformed authorization header")
		})
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	app := protectedApp(newTestJWTService(), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_ExpiredToken(t *testing.T) {
	jwtSvc := services.NewJWTService("test-secret-key", 1*time.Millisecond, 24*time.Hour)
	token := generateTestToken(t, jwtSvc, uuid.New(), "ana@example.com")

	time.Sleep(10 * time.Millisecond)

	app := protectedApp(jwtSvc, okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_WrongSecret(t *testing.T) {
	signer := services.NewJWTService("secret-1", 15*time.Minute, 24*time.Hour)
	verifier := services.NewJWTService("secret-2", 15*time.Minute, 24*time.Hour)

	token := generateTestToken(t, signer, uuid.New(), "ana@example.com")

	app := protectedApp(verifier, okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	jwtSvc := newTestJWTService()

	userID := uuid.New()
	email := "ana@example.com"
	token := generateTestToken(t, jwtSvc, userID, email)

	var extractedUserID uuid.UUID
	var extractedEmail string

	app := protectedApp(jwtSvc, func(c *drift.Context) {
		extractedUserID = GetUserID(c)
		extractedEmail = GetUserEmail(c)
		_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, extractedUserID)
	assert.Equal(t, email, extractedEmail)
}

func TestAuth_BearerCaseInsensitive(t *testing.T) {
	jwtSvc := newTestJWTService()
	token := generateTestToken(t, jwtSvc, uuid.New(), "ana@example.com")

	app := protectedApp(jwtSvc, okHandler)

	for _, bearer := range []string{"bearer", "BEARER", "BeArEr"} {
		t.Run(bearer, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", bearer+" "+token)
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestGetUserID_NotSet(t *testing.T) {
	app := drift.New()

	var extractedUserID uuid.UUID
	app.Get("/test", func(c *drift.Context) {
		extractedUserID = GetUserID(c)
		_ = c.JSON(http.StatusOK, nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, uuid.Nil, extractedUserID)
}

func TestGetUserEmail_NotSet(t *testing.T) {
	app := drift.New()

	var extractedEmail string
	app.Get("/test", func(c *drift.Context) {
		extractedEmail = GetUserEmail(c)
		_ = c.JSON(http.StatusOK, nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, "", extractedEmail)
}
