package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const devFirebaseUID = "demo-docente"

// DevUser sets a firebase uid in context without verifying any token.
// - If X-User-Id is missing, it falls back to "demo-docente".
// - Enabled only when APP_DEV_AUTH=true.
func DevUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if uid == "" {
			uid = devFirebaseUID
		}
		c.Set(CtxFirebaseUID, uid)
		if email := strings.TrimSpace(c.GetHeader("X-User-Email")); email != "" {
			c.Set(CtxEmail, email)
		}
		if name := strings.TrimSpace(c.GetHeader("X-User-Name")); name != "" {
			c.Set(CtxDisplayName, name)
		}
		c.Next()
	}
}
