package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	acceldomain "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/service"
	"github.com/cnpie-acelerador/cnpie-backend/internal/ai"
	"github.com/cnpie-acelerador/cnpie-backend/internal/auth"
	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
)

// Functions is the AI surface the handlers call.
type Functions interface {
	ExtractFields(ctx context.Context, req ai.ExtractionRequest) (map[string]any, error)
	EvaluateRubric(ctx context.Context, req ai.RubricRequest) (*ai.RubricResult, error)
	GenerateReport(ctx context.Context, req ai.ReportRequest) (*ai.Report, error)
}

// Trackers opens the project record the AI results are read from or applied to.
type Trackers interface {
	Open(ctx context.Context, userID string, pt acceldomain.ProjectType) (*service.Tracker, error)
}

type Handler struct {
	fn       Functions
	trackers Trackers
	layout   acceldomain.Layout
}

func New(fn Functions, trackers Trackers, layout acceldomain.Layout) *Handler {
	return &Handler{fn: fn, trackers: trackers, layout: layout}
}

// Register mounts the routes on a group scoped to /projects/:project_type.
func (h *Handler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/ai")
	g.POST("/extract", h.extract)
	g.POST("/evaluate", h.evaluate)
	g.POST("/report", h.report)
}

type extractReq struct {
	Stage        int      `json:"stage"`
	Accelerator  int      `json:"accelerator"`
	DocumentText string   `json:"document_text"`
	FileURL      string   `json:"file_url"`
	Fields       []string `json:"fields"`
	Apply        bool     `json:"apply"`
}

// extract fills accelerator fields from a document. With apply=true the
// extracted values are written over the saved answers in a single save.
func (h *Handler) extract(c *gin.Context) {
	var req extractReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if err := h.layout.Check(req.Stage, req.Accelerator); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if req.DocumentText == "" && req.FileURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": ai.ErrNoSource.Error()})
		return
	}
	pt, tr, ok := h.open(c)
	if !ok {
		return
	}

	key := acceldomain.NewStageKey(req.Stage, req.Accelerator)
	fields := req.Fields
	if len(fields) == 0 {
		fields = acceldomain.SchemaFor(key).Required
	}

	extracted, err := h.fn.ExtractFields(c.Request.Context(), ai.ExtractionRequest{
		DocumentText: req.DocumentText,
		FileURL:      req.FileURL,
		Fields:       fields,
		ProjectType:  string(pt),
		StageKey:     string(key),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"ok": true, "stage_key": key, "extracted": extracted, "applied": false}
	if req.Apply && len(extracted) > 0 {
		merged := tr.GetAcceleratorData(req.Stage, req.Accelerator)
		if merged == nil {
			merged = acceldomain.Payload{}
		}
		for k, v := range extracted {
			merged[k] = v
		}
		if _, err := tr.SaveAcceleratorData(c.Request.Context(), req.Stage, req.Accelerator, merged); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error(), "extracted": extracted})
			return
		}
		resp["applied"] = true
		resp["readiness"] = tr.Readiness(req.Stage, req.Accelerator)
	}
	c.JSON(http.StatusOK, resp)
}

type evaluateReq struct {
	Stage       int            `json:"stage"`
	Accelerator int            `json:"accelerator"`
	Criteria    []ai.Criterion `json:"criteria"`
}

// evaluate scores one accelerator's answers, or the whole record when no
// stage is given.
func (h *Handler) evaluate(c *gin.Context) {
	var req evaluateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	whole := req.Stage == 0 && req.Accelerator == 0
	if !whole {
		if err := h.layout.Check(req.Stage, req.Accelerator); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
	}
	pt, tr, ok := h.open(c)
	if !ok {
		return
	}

	var content map[string]any
	if whole {
		content = allData(tr)
	} else {
		content = tr.GetAcceleratorData(req.Stage, req.Accelerator)
	}
	if len(content) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": "nothing saved to evaluate"})
		return
	}

	res, err := h.fn.EvaluateRubric(c.Request.Context(), ai.RubricRequest{
		ProjectType: string(pt),
		Criteria:    req.Criteria,
		Content:     content,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "evaluation": res})
}

type reportReq struct {
	Kind string `json:"kind"`
}

func (h *Handler) report(c *gin.Context) {
	var req reportReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
			return
		}
	}
	pt, tr, ok := h.open(c)
	if !ok {
		return
	}

	data := allData(tr)
	if len(data) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": "nothing saved to report on"})
		return
	}

	rep, err := h.fn.GenerateReport(c.Request.Context(), ai.ReportRequest{
		ProjectType: string(pt),
		Kind:        req.Kind,
		StageData:   data,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": rep})
}

func (h *Handler) open(c *gin.Context) (acceldomain.ProjectType, *service.Tracker, bool) {
	pt, err := acceldomain.ParseProjectType(c.Param("project_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return "", nil, false
	}
	userID := auth.UserDBID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
		return "", nil, false
	}
	tr, err := h.trackers.Open(c.Request.Context(), userID, pt)
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("ai_open_record", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return "", nil, false
	}
	return pt, tr, true
}

func allData(tr *service.Tracker) map[string]any {
	all := tr.GetAllData()
	out := make(map[string]any, len(all))
	for k, v := range all {
		out[string(k)] = map[string]any(v)
	}
	return out
}

func writeError(c *gin.Context, err error) {
	var fe *ai.FunctionError
	switch {
	case errors.As(err, &fe):
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": fe.Message, "function": fe.Function})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, ai.ErrNoFields), errors.Is(err, ai.ErrNoSource),
		errors.Is(err, ai.ErrNoCriteria), errors.Is(err, ai.ErrBadMax):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
	}
}
