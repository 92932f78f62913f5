package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumeBuilder/internal/auth"
)

const userIDKey = "userID"

// Messages returned by AuthMiddleware.
const (
	MsgNoToken      = "No token, authorization denied"
	MsgInvalidToken = "Token is not valid"
)

// TokenValidator checks an access token and returns its claims.
type TokenValidator interface {
	ValidateTokenType(token, tokenType string) (*auth.TokenClaims, error)
}

// AuthMiddleware 从 x-auth-token 或 Authorization: Bearer 读取访问令牌，并将 userID 注入上下文。
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ExtractToken(c.Request)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": MsgNoToken})
			return
		}

		claims, err := validator.ValidateTokenType(raw, auth.TokenTypeAccess)
		if err != nil {
			LoggerFromContext(c).Info("access token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": MsgInvalidToken})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// ExtractToken prefers the custom header and falls back to a bearer Authorization header.
func ExtractToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get("x-auth-token")); token != "" {
		return token
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// UserID returns the authenticated user id set by AuthMiddleware.
func UserID(c *gin.Context) (uint, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
