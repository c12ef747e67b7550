package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
	"github.com/cnpie-acelerador/cnpie-backend/internal/users"
)

// UserEnsurer upserts the docente behind a firebase uid.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, u users.UpsertUser) (string, error)
}

// WithUser resolves the authenticated firebase uid into a docente id.
// It must run after FirebaseAuthMiddleware or DevUser.
func WithUser(repo UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		fuid := UserFirebaseUID(c)
		if fuid == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
			c.Abort()
			return
		}

		uid, err := repo.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: fuid,
			Email:       c.GetString(CtxEmail),
			DisplayName: c.GetString(CtxDisplayName),
		})
		if err != nil {
			logging.NewLogger(c.Request.Context()).LogError("ensure_user", err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(CtxUserDBID, uid)
		c.Next()
	}
}
