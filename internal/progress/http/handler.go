package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cnpie-acelerador/cnpie-backend/internal/auth"
	"github.com/cnpie-acelerador/cnpie-backend/internal/progress/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/progress/service"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/progress")
	g.GET("", h.overview)
	g.POST("/sessions/:module/start", h.start)
	g.PUT("/sessions/:module", h.advance)
	g.POST("/sessions/:module/complete", h.complete)
}

func (h *Handler) overview(c *gin.Context) {
	ov, err := h.svc.Overview(c.Request.Context(), auth.UserDBID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "progress": ov})
}

func (h *Handler) start(c *gin.Context) {
	s, err := h.svc.Start(c.Request.Context(), auth.UserDBID(c), c.Param("module"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": s, "progress": domain.CalculateModuleProgress(*s)})
}

type advanceReq struct {
	CurrentStep *int           `json:"current_step"`
	Data        map[string]any `json:"data"`
}

func (h *Handler) advance(c *gin.Context) {
	var req advanceReq
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentStep == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "current_step is required"})
		return
	}
	s, err := h.svc.Advance(c.Request.Context(), auth.UserDBID(c), c.Param("module"), *req.CurrentStep, req.Data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": s, "progress": domain.CalculateModuleProgress(*s)})
}

func (h *Handler) complete(c *gin.Context) {
	s, err := h.svc.Complete(c.Request.Context(), auth.UserDBID(c), c.Param("module"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "session": s, "progress": domain.CalculateModuleProgress(*s)})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidModule), errors.Is(err, domain.ErrInvalidStep):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
