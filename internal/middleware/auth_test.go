package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gebeya/marketplace-api/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newGuardedRouter(guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(testSecret)}
	if guard != nil {
		handlers = append(handlers, guard)
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetUserRole(c)})
	})
	router.POST("/guarded", handlers...)
	return router
}

func doGuarded(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_RejectsMissingAndBadTokens(t *testing.T) {
	router := newGuardedRouter(nil)

	assert.Equal(t, http.StatusUnauthorized, doGuarded(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGuarded(router, "not-a-jwt").Code)

	// Token signed with a different secret.
	claims := jwt.MapClaims{"sub": uuid.NewString(), "role": model.RoleAdmin}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doGuarded(router, forged).Code)
}

func TestAuthMiddleware_AcceptsValidToken(t *testing.T) {
	router := newGuardedRouter(nil)
	rec := doGuarded(router, signToken(t, uuid.New(), model.RoleCustomer))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVendorOrAdmin_BlocksCustomers(t *testing.T) {
	router := newGuardedRouter(VendorOrAdmin())

	assert.Equal(t, http.StatusForbidden, doGuarded(router, signToken(t, uuid.New(), model.RoleCustomer)).Code)
	assert.Equal(t, http.StatusOK, doGuarded(router, signToken(t, uuid.New(), model.RoleVendor)).Code)
	assert.Equal(t, http.StatusOK, doGuarded(router, signToken(t, uuid.New(), model.RoleAdmin)).Code)
}

func TestAdminOnly_BlocksVendors(t *testing.T) {
	router := newGuardedRouter(AdminOnly())

	assert.Equal(t, http.StatusForbidden, doGuarded(router, signToken(t, uuid.New(), model.RoleVendor)).Code)
	assert.Equal(t, http.StatusOK, doGuarded(router, signToken(t, uuid.New(), model.RoleAdmin)).Code)
}
