package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const authorIDContextKey = "authorID"

// OptionalAuth attaches the author identity from a bearer token when one is
// present and valid. Requests without a usable token proceed anonymously;
// anonymous authorship is permitted for messages.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := identityFromRequest(c, secret); ok {
			c.Set(authorIDContextKey, id)
		}
		c.Next()
	}
}

// RequireAuth rejects requests that carry no valid author identity.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identityFromRequest(c, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Set(authorIDContextKey, id)
		c.Next()
	}
}

// AuthorID returns the authenticated author id, or nil for anonymous requests.
func AuthorID(c *gin.Context) *string {
	if val, ok := c.Get(authorIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return &id
		}
	}
	return nil
}

func identityFromRequest(c *gin.Context, secret string) (string, bool) {
	raw := bearerToken(c)
	if raw == "" || secret == "" {
		return "", false
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

// bearerToken extracts the token from the Authorization header, falling back
// to the token query parameter used by websocket clients.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return c.Query("token")
}
