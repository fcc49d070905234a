package middleware

import (
	"strings"

	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// Auth validates the bearer token and stashes the caller's identity on the
// request context. Email is what the collaboration tables key on, so both
// the UUID and the email travel together.
func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Unauthorized("missing or malformed authorization header")
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func GetUserID(c *drift.Context) uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func GetUserEmail(c *drift.Context) string {
	if v, ok := c.Get(UserEmailKey); ok {
		if email, ok := v.(string); ok {
			return email
		}
	}
	return ""
}
