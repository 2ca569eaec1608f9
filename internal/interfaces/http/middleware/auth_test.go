package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdrcgi/internal/infrastructure/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func guardedRouter(jwtService *auth.JWTService) *gin.Engine {
	router := gin.New()
	router.GET("/protected", NewAuthMiddleware(jwtService).RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserName))
	})
	return router
}

func TestRequireAuthValidToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 15)
	token, err := jwtService.Generate("jdoe")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	guardedRouter(jwtService).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jdoe", w.Body.String())
}

func TestRequireAuthMissingHeader(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 15)

	w := httptest.NewRecorder()
	guardedRouter(jwtService).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 15)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	guardedRouter(jwtService).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthWrongKey(t *testing.T) {
	other := auth.NewJWTService("other-secret", 15)
	token, err := other.Generate("jdoe")
	require.NoError(t, err)

	jwtService := auth.NewJWTService("test-secret", 15)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	guardedRouter(jwtService).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
