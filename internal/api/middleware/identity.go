package middleware

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type identityClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// OptionalIdentity attaches user_id from a Bearer token when one is
// presented and AUTH_JWT_SECRET is set. Anonymous requests pass through:
// an interview can always run in demo mode without an account.
func OptionalIdentity() gin.HandlerFunc {
	secret := os.Getenv("AUTH_JWT_SECRET")

	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.Next()
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if raw == "" {
			c.Next()
			return
		}

		claims := &identityClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid || claims.Subject == "" {
			// a bad token degrades to anonymous rather than blocking the turn
			c.Next()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Next()
	}
}
