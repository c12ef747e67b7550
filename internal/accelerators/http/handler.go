package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/service"
	"github.com/cnpie-acelerador/cnpie-backend/internal/auth"
	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
)

type Handler struct {
	svc  *service.Service
	stop <-chan struct{}
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// StopStreams ends every open /events stream once done is closed.
func (h *Handler) StopStreams(done <-chan struct{}) *Handler {
	h.stop = done
	return h
}

// openTracker loads the record named by :project_type for the current
// docente. It writes the error response itself and reports false on failure.
func (h *Handler) openTracker(c *gin.Context) (*service.Tracker, bool) {
	pt, err := domain.ParseProjectType(c.Param("project_type"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	userID := auth.UserDBID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return nil, false
	}

	tr, err := h.svc.Open(c.Request.Context(), userID, pt)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return tr, true
}

func position(c *gin.Context, layout domain.Layout) (int, int, bool) {
	stage, err1 := strconv.Atoi(c.Param("stage"))
	acc, err2 := strconv.Atoi(c.Param("accelerator"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "stage and accelerator must be integers"})
		return 0, 0, false
	}
	if err := layout.Check(stage, acc); err != nil {
		writeError(c, err)
		return 0, 0, false
	}
	return stage, acc, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidProjectType),
		errors.Is(err, domain.ErrInvalidStage),
		errors.Is(err, domain.ErrInvalidStageKey),
		errors.Is(err, domain.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrEmptyStageData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	default:
		logging.NewLogger(c.Request.Context()).LogError("accelerators_http", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
