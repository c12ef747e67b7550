package files

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	acceldomain "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
)

// Uploader is the Service surface used by the handlers.
type Uploader interface {
	Upload(ctx context.Context, in UploadInput) (*File, error)
	List(ctx context.Context, userID, projectType string) ([]*File, error)
	Delete(ctx context.Context, userID, id string) error
}

type Handler struct {
	svc    Uploader
	userID func(c *gin.Context) string
}

// Register mounts /files on rg.
func Register(rg *gin.RouterGroup, svc Uploader, userID func(c *gin.Context) string) {
	h := &Handler{svc: svc, userID: userID}

	g := rg.Group("/files")
	g.POST("", h.upload)
	g.GET("", h.list)
	g.DELETE("/:id", h.remove)
}

// upload takes multipart fields file, project_type and optional stage_key.
func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": ErrTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "file is required"})
		return
	}
	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	defer src.Close()

	f, err := h.svc.Upload(c.Request.Context(), UploadInput{
		UserID:      h.userID(c),
		ProjectType: c.PostForm("project_type"),
		StageKey:    c.PostForm("stage_key"),
		FileName:    fh.Filename,
		Body:        src,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "file": f})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), h.userID(c), c.Query("project_type"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "files": items})
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), h.userID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, ErrEmptyFile),
		errors.Is(err, acceldomain.ErrInvalidProjectType),
		errors.Is(err, acceldomain.ErrInvalidStageKey):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
