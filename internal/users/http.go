package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ProfileStore is the part of Repo the /me handlers use.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*Docente, error)
	UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*Docente, error)
}

type Handler struct {
	repo   ProfileStore
	userID func(c *gin.Context) string
}

// Register mounts GET/PUT /me. userID resolves the authenticated docente id.
func Register(rg *gin.RouterGroup, repo ProfileStore, userID func(c *gin.Context) string) {
	h := &Handler{repo: repo, userID: userID}

	rg.GET("/me", h.profile)
	rg.PUT("/me", h.updateProfile)
}

func (h *Handler) profile(c *gin.Context) {
	d, err := h.repo.Get(c.Request.Context(), h.userID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": d})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.CodigoModular != nil && !validCodigoModular(*req.CodigoModular) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "codigo_modular must be 7 digits"})
		return
	}

	d, err := h.repo.UpdateProfile(c.Request.Context(), h.userID(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": d})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
}

func validCodigoModular(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 7 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
