package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sabgaby/integration-hub/internal/auth"
)

const userKey = "authUser"

// Session validates the session token and attaches the user identifier.
type Session struct {
	Verifier *auth.Verifier
}

// RequireUser ensures the request carries a valid session token, either as a
// bearer token or as the sid cookie set at sign-in.
func (m *Session) RequireUser(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		if cookie, err := c.Cookie("sid"); err == nil {
			token = cookie
		}
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Authorization required."})
		return
	}

	user, err := m.Verifier.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Invalid session token."})
		return
	}

	c.Set(userKey, user)
	c.Next()
}

// GetUser exposes the authenticated user identifier to handlers.
func GetUser(c *gin.Context) (string, bool) {
	value, ok := c.Get(userKey)
	if !ok {
		return "", false
	}
	user, ok := value.(string)
	return user, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
