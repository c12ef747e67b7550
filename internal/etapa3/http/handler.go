package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	acceldomain "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/auth"
	"github.com/cnpie-acelerador/cnpie-backend/internal/etapa3/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/etapa3/service"
)

// ProjectResolver maps the current docente and project type to a record id.
type ProjectResolver interface {
	RecordID(ctx context.Context, userID string, pt acceldomain.ProjectType) (string, error)
}

type Handler struct {
	svc      *service.Service
	projects ProjectResolver
}

func New(svc *service.Service, projects ProjectResolver) *Handler {
	return &Handler{svc: svc, projects: projects}
}

// Register mounts the routes on a group scoped to /projects/:project_type.
func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/etapa3")
	g.GET("", h.list)
	g.PUT("/:entity", h.save)
	g.POST("/:entity/complete", h.complete)
	g.POST("/:entity/reopen", h.reopen)
}

func (h *Handler) list(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}
	items, err := h.svc.List(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entities": items})
}

func (h *Handler) save(c *gin.Context) {
	kind, err := domain.ParseKind(c.Param("entity"))
	if err != nil {
		writeError(c, err)
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	data, err := acceldomain.ParsePayload(raw)
	if err != nil {
		writeError(c, err)
		return
	}
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	e, err := h.svc.Save(c.Request.Context(), projectID, kind, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entity": e})
}

func (h *Handler) complete(c *gin.Context) {
	h.transition(c, h.svc.Complete)
}

func (h *Handler) reopen(c *gin.Context) {
	h.transition(c, h.svc.Reopen)
}

func (h *Handler) transition(c *gin.Context, fn func(context.Context, string, domain.Kind) (*domain.Entity, error)) {
	kind, err := domain.ParseKind(c.Param("entity"))
	if err != nil {
		writeError(c, err)
		return
	}
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}
	e, err := fn(c.Request.Context(), projectID, kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entity": e})
}

func (h *Handler) projectID(c *gin.Context) (string, bool) {
	pt, err := acceldomain.ParseProjectType(c.Param("project_type"))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	id, err := h.projects.RecordID(c.Request.Context(), auth.UserDBID(c), pt)
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, acceldomain.ErrInvalidProjectType),
		errors.Is(err, acceldomain.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrEntityCompleted),
		errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrEmptyData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
