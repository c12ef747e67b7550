package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ProjectType is one of the four CNPIE categories a docente can apply to.
type ProjectType string

const (
	ProjectTypeInnovacionImplementacion ProjectType = "innovacion_implementacion"
	ProjectTypeInnovacionConsolidacion  ProjectType = "innovacion_consolidacion"
	ProjectTypeInvestigacionAccion      ProjectType = "investigacion_accion"
	ProjectTypeGestionEscolar           ProjectType = "gestion_escolar"
)

var projectTypes = []ProjectType{
	ProjectTypeInnovacionImplementacion,
	ProjectTypeInnovacionConsolidacion,
	ProjectTypeInvestigacionAccion,
	ProjectTypeGestionEscolar,
}

// ProjectTypes returns the supported categories in display order.
func ProjectTypes() []ProjectType {
	out := make([]ProjectType, len(projectTypes))
	copy(out, projectTypes)
	return out
}

func ParseProjectType(s string) (ProjectType, error) {
	for _, pt := range projectTypes {
		if string(pt) == s {
			return pt, nil
		}
	}
	return "", ErrInvalidProjectType
}

// Payload is the answer blob of one accelerator. It is always a JSON object.
type Payload map[string]any

// ParsePayload decodes raw JSON and rejects anything that is not an object.
func ParsePayload(raw []byte) (Payload, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, ErrInvalidPayload
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrInvalidPayload
	}
	return Payload(obj), nil
}

// IsEmpty reports whether the payload has no meaningful answer.
// Blank strings, empty arrays and empty objects do not count.
func (p Payload) IsEmpty() bool {
	for _, v := range p {
		if !isBlank(v) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can never alias stored answers.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	return Payload(deepCopyMap(p))
}

// ProjectRecord is the persisted per-user, per-project-type wizard document.
type ProjectRecord struct {
	ID                 string               `json:"id"`
	UserID             string               `json:"user_id"`
	ProjectType        ProjectType          `json:"project_type"`
	CurrentStage       int                  `json:"current_stage"`
	CurrentAccelerator int                  `json:"current_accelerator"`
	StageCompletion    map[StageKey]Status  `json:"stage_completion"`
	StageData          map[StageKey]Payload `json:"stage_data"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// NewProjectRecord returns an empty record positioned at the first accelerator.
func NewProjectRecord(id, userID string, pt ProjectType, now time.Time) *ProjectRecord {
	return &ProjectRecord{
		ID:                 id,
		UserID:             userID,
		ProjectType:        pt,
		CurrentStage:       1,
		CurrentAccelerator: 1,
		StageCompletion:    map[StageKey]Status{},
		StageData:          map[StageKey]Payload{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Clone deep-copies the record, including every payload.
func (r *ProjectRecord) Clone() *ProjectRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.StageCompletion = make(map[StageKey]Status, len(r.StageCompletion))
	for k, v := range r.StageCompletion {
		out.StageCompletion[k] = v
	}
	out.StageData = make(map[StageKey]Payload, len(r.StageData))
	for k, v := range r.StageData {
		out.StageData[k] = v.Clone()
	}
	return &out
}

// StatusOf returns Completed only when the flag is present.
func (r *ProjectRecord) StatusOf(key StageKey) Status {
	if s, ok := r.StageCompletion[key]; ok && s == StatusCompleted {
		return StatusCompleted
	}
	return StatusDraft
}

// Ahead reports whether (stage, accelerator) is past the record's current position.
func (r *ProjectRecord) Ahead(stage, accelerator int) bool {
	if stage != r.CurrentStage {
		return stage > r.CurrentStage
	}
	return accelerator > r.CurrentAccelerator
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		for _, e := range t {
			if !isBlank(e) {
				return false
			}
		}
		return true
	case map[string]any:
		return Payload(t).IsEmpty()
	default:
		return false
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case Payload:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return t
	}
}
