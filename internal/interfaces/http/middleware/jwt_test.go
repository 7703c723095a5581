package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/catalogd/backend/internal/infrastructure/auth"
	"github.com/catalogd/backend/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestRouter(t *testing.T, svc *auth.JWTService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(svc))
	r.GET("/api/v1/catalog/sync/pending-count", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant_id": GetJWTTenantID(c),
			"user_id":   GetJWTUserID(c),
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func newJWTTestService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "middleware-test-secret-of-decent-length",
		AccessTokenExpiration: time.Hour,
		Issuer:                "catalogd-test",
	})
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newJWTTestService()
	router := newAuthTestRouter(t, svc)

	tenantID := uuid.New()
	userID := uuid.New()
	token, _, err := svc.GenerateToken(auth.GenerateTokenInput{
		TenantID: tenantID,
		UserID:   userID,
		Username: "operator",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/sync/pending-count", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), tenantID.String())
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestJWTAuthMiddleware_MissingHeader(t *testing.T) {
	router := newAuthTestRouter(t, newJWTTestService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/sync/pending-count", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	expired := auth.NewJWTService(config.JWTConfig{
		Secret:                "middleware-test-secret-of-decent-length",
		AccessTokenExpiration: -time.Minute,
		Issuer:                "catalogd-test",
	})
	router := newAuthTestRouter(t, newJWTTestService())

	token, _, err := expired.GenerateToken(auth.GenerateTokenInput{
		TenantID: uuid.New(),
		UserID:   uuid.New(),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/sync/pending-count", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
}

func TestJWTAuthMiddleware_SkipPath(t *testing.T) {
	router := newAuthTestRouter(t, newJWTTestService())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_MalformedHeader(t *testing.T) {
	router := newAuthTestRouter(t, newJWTTestService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/sync/pending-count", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
