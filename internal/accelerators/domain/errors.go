package domain

import "errors"

var (
	ErrNotFound           = errors.New("project record not found")
	ErrInvalidProjectType = errors.New("invalid project type")
	ErrInvalidStage       = errors.New("invalid stage or accelerator")
	ErrInvalidStageKey    = errors.New("invalid stage key")
	ErrInvalidPayload     = errors.New("accelerator data must be a JSON object")
	ErrEmptyStageData     = errors.New("accelerator has no saved data")
)
