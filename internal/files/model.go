// Package files stores uploaded supporting documents for a project.
package files

import (
	"errors"
	"time"
)

// MaxUploadBytes caps a single upload.
const MaxUploadBytes = 10 << 20

var (
	ErrNotFound        = errors.New("file not found")
	ErrTooLarge        = errors.New("file exceeds 10 MiB")
	ErrEmptyFile       = errors.New("file is empty")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// allowedTypes are the detected content types accepted for upload.
var allowedTypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"image/png",
	"image/jpeg",
}

// File is one row of the files table.
type File struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProjectType string    `json:"project_type"`
	StageKey    *string   `json:"stage_key,omitempty"`
	ObjectKey   string    `json:"object_key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PublicURL   string    `json:"public_url"`
	CreatedAt   time.Time `json:"created_at"`
}
