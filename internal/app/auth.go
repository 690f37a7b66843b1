package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const metricsRealm = `Basic realm="counselor-bot metrics"`

// metricsAuthMiddleware enforces Basic Auth on /metrics. When enabled is
// false, requests pass through untouched.
func metricsAuthMiddleware(enabled bool, username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok || !credentialsMatch(user, pass, username, password) {
			c.Header("WWW-Authenticate", metricsRealm)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}

// credentialsMatch compares both fields in constant time, always checking both.
func credentialsMatch(user, pass, wantUser, wantPass string) bool {
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser))
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass))
	return userMatch&passMatch == 1
}
