package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/fixhub-dev/fixhub-api/internal/models"
)

func newRBACRouter(claims *models.JWTClaims, guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	})
	router.GET("/resource/:id", guard, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRBACAllowsRole(t *testing.T) {
	router := newRBACRouter(&models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, RequireRoles(models.RoleAdmin))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resource/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACDeniesRole(t *testing.T) {
	router := newRBACRouter(&models.JWTClaims{UserID: "u1", Role: models.RoleCustomer}, RequireRoles(models.RoleAdmin))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resource/x", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACDeniesMissingClaims(t *testing.T) {
	router := newRBACRouter(nil, RequireRoles(models.RoleAdmin))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resource/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRBACSelfAccess(t *testing.T) {
	router := newRBACRouter(&models.JWTClaims{UserID: "u1", Role: models.RoleCustomer}, RBAC(string(models.RoleAdmin), "SELF"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resource/u1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resource/u2", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
