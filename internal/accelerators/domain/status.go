package domain

// Status is the completion state of one accelerator.
//
// Only StatusCompleted is ever stored in ProjectRecord.StageCompletion;
// a missing entry means StatusDraft.
type Status string

const (
	StatusDraft     Status = "borrador"
	StatusCompleted Status = "completado"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusCompleted
}
