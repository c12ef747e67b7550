package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
	CtxDisplayName = "display_name"
	CtxUserDBID    = "user_db_id"
)

// UserFirebaseUID extracts the Firebase UID from the Gin context.
// This is set by FirebaseAuthMiddleware or DevUser.
func UserFirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

// UserDBID returns the docente id resolved by WithUser.
func UserDBID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserDBID))
}
