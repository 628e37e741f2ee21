package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prodentai/companion/internal/apierr"
)

const userIDKey = "user_id"

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := bearerUser(c, issuer)
		if !ok {
			c.Header("WWW-Authenticate", "Bearer")
			apierr.Respond(c, apierr.Unauthorized("Could not validate credentials"))
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid bearer token is present
// and lets anonymous requests through.
func OptionalAuth(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := bearerUser(c, issuer); ok {
			c.Set(userIDKey, userID)
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id set by the middleware.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}

func bearerUser(c *gin.Context, issuer *TokenIssuer) (uint, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return 0, false
	}
	userID, err := issuer.Parse(strings.TrimSpace(token))
	if err != nil {
		return 0, false
	}
	return userID, true
}
