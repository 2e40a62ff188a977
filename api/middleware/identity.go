// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by the identity middleware.
const (
	ContextUserID   = "userID"
	ContextUserName = "userName"
)

// Identity establishes the caller's identity. With a secret configured it
// requires a Bearer HS256 token whose sub claim is the user ID and whose
// name claim is the display name. Without a secret (development) it falls
// back to X-User-Id / X-User-Name headers with a default user.
func Identity(secret string) gin.HandlerFunc {
	if secret == "" {
		return devIdentity()
	}

	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(c, "missing bearer token")
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			unauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "invalid token claims")
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			unauthorized(c, "token missing subject")
			return
		}
		name, _ := claims["name"].(string)
		if name == "" {
			name = sub
		}

		c.Set(ContextUserID, sub)
		c.Set(ContextUserName, name)
		c.Next()
	}
}

func devIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-Id")
		if userID == "" {
			userID = "default-user"
		}
		userName := c.GetHeader("X-User-Name")
		if userName == "" {
			userName = userID
		}
		c.Set(ContextUserID, userID)
		c.Set(ContextUserName, userName)
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
