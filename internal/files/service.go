package files

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	acceldomain "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/files/objectstore"
	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
)

// Store is the files table.
type Store interface {
	Insert(ctx context.Context, f *File) error
	List(ctx context.Context, userID, projectType string) ([]*File, error)
	Delete(ctx context.Context, userID, id string) error
}

type Service struct {
	repo    Store
	objects objectstore.Store
	newID   func() string
}

func NewService(repo Store, objects objectstore.Store) *Service {
	return &Service{repo: repo, objects: objects, newID: uuid.NewString}
}

// UploadInput describes one incoming file. StageKey is optional.
type UploadInput struct {
	UserID      string
	ProjectType string
	StageKey    string
	FileName    string
	Body        io.Reader
}

// Upload checks size and detected type, writes the object, then records it.
// The content type is sniffed from the bytes; the client's claim is ignored.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*File, error) {
	pt, err := acceldomain.ParseProjectType(in.ProjectType)
	if err != nil {
		return nil, err
	}
	var stageKey *string
	if in.StageKey != "" {
		key, _, _, err := acceldomain.ParseStageKey(in.StageKey)
		if err != nil {
			return nil, err
		}
		k := string(key)
		stageKey = &k
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	switch {
	case len(data) == 0:
		return nil, ErrEmptyFile
	case len(data) > MaxUploadBytes:
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	contentType, ok := allowed(mtype)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mtype.String())
	}

	objectKey := fmt.Sprintf("uploads/%s/%s/%s%s", in.UserID, pt, s.newID(), mtype.Extension())
	url, err := s.objects.Upload(ctx, objectstore.Object{
		Key:         objectKey,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		return nil, err
	}

	f := &File{
		UserID:      in.UserID,
		ProjectType: string(pt),
		StageKey:    stageKey,
		ObjectKey:   objectKey,
		FileName:    cleanName(in.FileName, mtype.Extension()),
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		PublicURL:   url,
	}
	if err := s.repo.Insert(ctx, f); err != nil {
		logging.NewLogger(ctx).LogErrorf("file_upload", "object %s stored but not recorded: %v", objectKey, err)
		return nil, err
	}
	return f, nil
}

func (s *Service) List(ctx context.Context, userID, projectType string) ([]*File, error) {
	if projectType != "" {
		if _, err := acceldomain.ParseProjectType(projectType); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, userID, projectType)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, userID, id)
}

func allowed(m *mimetype.MIME) (string, bool) {
	for _, t := range allowedTypes {
		if m.Is(t) {
			return t, true
		}
	}
	return "", false
}

func cleanName(name, ext string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "archivo" + ext
	}
	return name
}
