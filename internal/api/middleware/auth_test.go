package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"agri-market-api-server/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	group := router.Group("/")
	group.Use(Authenticate())
	if len(roles) > 0 {
		group.Use(Authorize(roles...))
	}
	group.GET("/resource", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userID": c.GetString("user_id"),
			"role":   c.GetString("user_role"),
		})
	})

	return router
}

func TestAuthenticate(t *testing.T) {
	auth.Configure("middleware-test-secret", 0)
	token, err := auth.GenerateJWT("64b000000000000000000001", "9876543210", "farmer")
	require.NoError(t, err)

	router := protectedRouter()

	t.Run("missing header", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resource", nil)
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resource", nil)
		req.Header.Set("Authorization", token)
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resource", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resource", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "64b000000000000000000001")
	})
}

func TestAuthorize(t *testing.T) {
	auth.Configure("middleware-test-secret", 0)
	farmerToken, err := auth.GenerateJWT("64b000000000000000000001", "9876543210", "farmer")
	require.NoError(t, err)
	buyerToken, err := auth.GenerateJWT("64b000000000000000000002", "9876543211", "buyer")
	require.NoError(t, err)

	router := protectedRouter("farmer", "admin")

	t.Run("allowed role", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resource", nil)
		req.Header.Set("Authorization", "Bearer "+farmerToken)
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("forbidden role", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/resource", nil)
		req.Header.Set("Authorization", "Bearer "+buyerToken)
		router.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}
