package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gebeya/marketplace-api/internal/model"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// AuthMiddleware validates the bearer token and stores the caller's
// identity and role on the request context for the handlers downstream.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, err := parseBearer(c.GetHeader("Authorization"), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

func parseBearer(header, secret string) (uuid.UUID, string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return uuid.Nil, "", jwt.ErrTokenMalformed
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	if !token.Valid {
		return uuid.Nil, "", jwt.ErrTokenSignatureInvalid
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", err
	}
	role, _ := claims["role"].(string)
	return userID, role, nil
}

// AdminOnly rejects callers whose token does not carry the admin role.
func AdminOnly() gin.HandlerFunc {
	return requireRole(model.RoleAdmin)
}

// VendorOrAdmin guards listing-ownership routes: only sellers and
// administrators may create products.
func VendorOrAdmin() gin.HandlerFunc {
	return requireRole(model.RoleVendor, model.RoleAdmin)
}

func requireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := GetUserRole(c)
		for _, role := range roles {
			if caller == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}

func GetUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxUserID)
	uid, _ := id.(uuid.UUID)
	return uid
}

func GetUserRole(c *gin.Context) string {
	role, _ := c.Get(ctxUserRole)
	r, _ := role.(string)
	return r
}
