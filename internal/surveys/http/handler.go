package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cnpie-acelerador/cnpie-backend/internal/auth"
	"github.com/cnpie-acelerador/cnpie-backend/internal/surveys/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/surveys/service"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the owner routes; rg must be authenticated.
func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/surveys")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/close", h.close)
	g.GET("/:id/summary", h.summary)
}

// RegisterPublic mounts the respondent routes, which need no login.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	g := rg.Group("/public/surveys")
	g.GET("/:id", h.publicGet)
	g.POST("/:id/responses", h.submit)
}

func (h *Handler) create(c *gin.Context) {
	var req service.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	s, err := h.svc.Create(c.Request.Context(), auth.UserDBID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "survey": s})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.ListByOwner(c.Request.Context(), auth.UserDBID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "surveys": items})
}

func (h *Handler) get(c *gin.Context) {
	s, err := h.svc.Get(c.Request.Context(), auth.UserDBID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "survey": s})
}

func (h *Handler) close(c *gin.Context) {
	s, err := h.svc.Close(c.Request.Context(), auth.UserDBID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "survey": s})
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.svc.Summary(c.Request.Context(), auth.UserDBID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "summary": sum})
}

func (h *Handler) publicGet(c *gin.Context) {
	s, err := h.svc.Public(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "survey": s})
}

type submitReq struct {
	Answers []domain.Answer `json:"answers"`
}

func (h *Handler) submit(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	resp, err := h.svc.Submit(c.Request.Context(), c.Param("id"), req.Answers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "response_id": resp.ID})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSurveyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrSurveyClosed):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrInvalidSurvey), errors.Is(err, domain.ErrInvalidAnswer):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
