package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harveywai/threatscan/pkg/auth"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "threatscan_session"

const (
	contextUserIDKey = "userID"
	contextEmailKey  = "userEmail"
)

// RequireAuth validates the session cookie and attaches user information to
// the Gin context. Requests without a valid session are redirected to the
// login page; this variant protects the server-rendered pages.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := sessionClaims(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Set(contextUserIDKey, claims.UserID)
		c.Set(contextEmailKey, claims.Email)
		c.Next()
	}
}

// RequireAuthJSON is RequireAuth for API routes: failures get a 401 JSON body
// instead of a redirect.
func RequireAuthJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := sessionClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Set(contextUserIDKey, claims.UserID)
		c.Set(contextEmailKey, claims.Email)
		c.Next()
	}
}

// OptionalAuth attaches user information when a valid session is present and
// lets the request through either way. Public routes use it to behave
// differently for signed-in callers.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := sessionClaims(c); ok {
			c.Set(contextUserIDKey, claims.UserID)
			c.Set(contextEmailKey, claims.Email)
		}
		c.Next()
	}
}

func sessionClaims(c *gin.Context) (*auth.Claims, bool) {
	token, err := c.Cookie(SessionCookie)
	if err != nil || token == "" {
		return nil, false
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// CurrentUserID returns the authenticated user's ID from the context.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(contextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// CurrentEmail returns the authenticated user's email from the context.
func CurrentEmail(c *gin.Context) (string, bool) {
	v, exists := c.Get(contextEmailKey)
	if !exists {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

// IsAuthenticated reports whether the request carries a valid session,
// without aborting. Used by pages that redirect logged-in users away.
func IsAuthenticated(c *gin.Context) bool {
	_, ok := sessionClaims(c)
	return ok
}
