package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tourhub/service-booking/internal/platform/auth"
	"github.com/tourhub/service-booking/internal/platform/response"
)

const (
	ctxUserID  = "user_id"
	ctxEmail   = "email"
	ctxIsStaff = "is_staff"
)

// AuthMiddleware validates the access token in the Authorization header and
// stores the caller's identity in the gin context. Both "Bearer" and "JWT"
// schemes are accepted.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || token == "" || !(strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "JWT")) {
			response.Unauthorized(c, "invalid authorization header")
			return
		}

		claims, err := jwtManager.ValidateAccessToken(strings.TrimSpace(token))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxIsStaff, claims.IsStaff)
		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a valid access token is
// present and lets anonymous requests through otherwise.
func OptionalAuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if found && (strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "JWT")) {
			if claims, err := jwtManager.ValidateAccessToken(strings.TrimSpace(token)); err == nil {
				c.Set(ctxUserID, claims.UserID)
				c.Set(ctxEmail, claims.Email)
				c.Set(ctxIsStaff, claims.IsStaff)
			}
		}
		c.Next()
	}
}

// RequireStaff rejects callers whose token does not carry the staff flag.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIsStaff(c) {
			response.Forbidden(c, "staff access required")
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's ID.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetEmail returns the authenticated user's email.
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// GetIsStaff reports whether the authenticated user is staff.
func GetIsStaff(c *gin.Context) bool {
	return c.GetBool(ctxIsStaff)
}
