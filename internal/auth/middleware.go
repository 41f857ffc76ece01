package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"motoserve/internal/api"
)

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: msg})
}

// AuthMiddleware validates the bearer token and stores the caller's identity
// on the gin context under user_id, user_email and user_role.
func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || strings.TrimSpace(scheme) != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		token = strings.TrimSpace(token)
		if token == "" {
			abortUnauthorized(c, "Token is empty")
			return
		}

		claims, err := ValidateToken(token, accessTokenSecret)
		switch {
		case errors.Is(err, ErrTokenExpired):
			abortUnauthorized(c, "Token expired")
			return
		case err != nil:
			abortUnauthorized(c, "Invalid or malformed token")
			return
		}

		if claims.TokenType != "access" {
			abortUnauthorized(c, "Access token required")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)

		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated caller
// holds one of the given roles. Must run after AuthMiddleware.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			abortUnauthorized(c, "User role not found")
			return
		}

		for _, want := range allowed {
			if role == want {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, api.ErrorResponse{Error: "Insufficient permissions"})
	}
}

// GetUserID reads the authenticated user's id set by AuthMiddleware.
func GetUserID(c *gin.Context) (int, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

// GetUserRole reads the authenticated user's role set by AuthMiddleware.
func GetUserRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_role")
	if !exists {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
