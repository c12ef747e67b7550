package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/service"
	"github.com/cnpie-acelerador/cnpie-backend/internal/auth"
)

func (h *Handler) record(c *gin.Context) {
	tr, ok := h.openTracker(c)
	if !ok {
		return
	}

	readiness := make(map[domain.StageKey]domain.Readiness)
	for _, key := range h.svc.Layout().Keys() {
		_, stage, acc, err := domain.ParseStageKey(string(key))
		if err != nil {
			continue
		}
		readiness[key] = tr.Readiness(stage, acc)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "record": tr.Record(), "readiness": readiness})
}

func (h *Handler) allData(c *gin.Context) {
	tr, ok := h.openTracker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": tr.GetAllData()})
}

func (h *Handler) getAccelerator(c *gin.Context) {
	stage, acc, ok := position(c, h.svc.Layout())
	if !ok {
		return
	}
	tr, ok := h.openTracker(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"stage_key": domain.NewStageKey(stage, acc),
		"data":      tr.GetAcceleratorData(stage, acc),
		"status":    tr.Status(stage, acc),
		"readiness": tr.Readiness(stage, acc),
	})
}

func (h *Handler) saveAccelerator(c *gin.Context) {
	stage, acc, ok := position(c, h.svc.Layout())
	if !ok {
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	data, err := domain.ParsePayload(raw)
	if err != nil {
		writeError(c, err)
		return
	}

	tr, ok := h.openTracker(c)
	if !ok {
		return
	}
	if _, err := tr.SaveAcceleratorData(c.Request.Context(), stage, acc, data); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"stage_key": domain.NewStageKey(stage, acc),
		"readiness": tr.Readiness(stage, acc),
	})
}

func (h *Handler) validate(c *gin.Context) {
	stage, acc, ok := position(c, h.svc.Layout())
	if !ok {
		return
	}
	tr, ok := h.openTracker(c)
	if !ok {
		return
	}
	if _, err := tr.ValidateAccelerator(c.Request.Context(), stage, acc); err != nil {
		writeError(c, err)
		return
	}

	rec := tr.Record()
	c.JSON(http.StatusOK, gin.H{
		"ok":                  true,
		"stage_key":           domain.NewStageKey(stage, acc),
		"status":              tr.Status(stage, acc),
		"current_stage":       rec.CurrentStage,
		"current_accelerator": rec.CurrentAccelerator,
	})
}

func (h *Handler) canProceed(c *gin.Context) {
	stage, acc, ok := position(c, h.svc.Layout())
	if !ok {
		return
	}
	tr, ok := h.openTracker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "can_proceed": tr.CanProceedToNext(stage, acc)})
}

const keepAliveInterval = 25 * time.Second

// events streams record invalidations as server-sent events. A "ready"
// event is sent once the subscription is live.
func (h *Handler) events(c *gin.Context) {
	pt, err := domain.ParseProjectType(c.Param("project_type"))
	if err != nil {
		writeError(c, err)
		return
	}
	userID := auth.UserDBID(c)

	ctx := c.Request.Context()
	events, closeSub, err := h.svc.Subscribe(ctx, userID, pt)
	if errors.Is(err, service.ErrSubscriptionsDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	defer closeSub()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"project_type": pt})
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		case <-ctx.Done():
			return false
		case <-h.stop:
			return false
		}
	})
}
