package webserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func parseAddr(header string, secret []byte) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	tok, err := jwt.Parse(header[7:], func(t *jwt.Token) (interface{}, error) { return secret, nil })
	if err != nil || !tok.Valid {
		return "", false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	addr, ok := claims["addr"].(string)
	return addr, ok && addr != ""
}

func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr, ok := parseAddr(c.GetHeader("Authorization"), secret)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("addr", addr)
		c.Next()
	}
}

// OptionalJWTMiddleware sets the caller address when a valid token is
// present and lets anonymous requests through; read handlers use it to
// decide between full content and metadata.
func OptionalJWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if addr, ok := parseAddr(c.GetHeader("Authorization"), secret); ok {
			c.Set("addr", addr)
		}
		c.Next()
	}
}
