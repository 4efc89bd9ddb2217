package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/diasporabridge/bridge/internal/core"
)

const principalKey = "admin_principal"

// JWTAuth validates admin bearer tokens signed with an HMAC secret
type JWTAuth struct {
	secret []byte
}

// NewJWTAuth creates a JWTAuth with the given signing secret
func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{secret: []byte(secret)}
}

// Authorize parses and validates the token, returning the administrator
// principal. Any failure maps to core.ErrUnauthorized without detail.
func (a *JWTAuth) Authorize(_ context.Context, credential string) (*core.Principal, error) {
	if credential == "" {
		return nil, core.ErrUnauthorized
	}

	token, err := jwt.Parse(credential, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, core.ErrUnauthorized
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, core.ErrUnauthorized
	}

	return &core.Principal{Subject: subject}, nil
}

// requireAdmin gates a route group on the AuthContext check. Failures
// return an opaque 401.
func requireAdmin(auth core.AuthContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

		principal, err := auth.Authorize(c.Request.Context(), credential)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthorized",
			})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}
