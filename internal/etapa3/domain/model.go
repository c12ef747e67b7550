package domain

import (
	"errors"
	"time"

	acceldomain "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
)

var (
	ErrNotFound          = errors.New("etapa3 entity not found")
	ErrInvalidKind       = errors.New("invalid etapa3 entity")
	ErrEntityCompleted   = errors.New("etapa3 entity is completed; reopen it before editing")
	ErrEmptyData         = errors.New("etapa3 entity has no data")
	ErrInvalidTransition = errors.New("invalid etapa3 status transition")
)

// Kind names one of the three stage-3 sub-entities.
type Kind string

const (
	KindDiagnostico Kind = "diagnostico"
	KindPlanAccion  Kind = "plan_accion"
	KindEvaluacion  Kind = "evaluacion"
)

var kinds = []Kind{KindDiagnostico, KindPlanAccion, KindEvaluacion}

func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrInvalidKind
}

type Status string

const (
	StatusBorrador   Status = "BORRADOR"
	StatusCompletado Status = "COMPLETADO"
)

// transitions lists the allowed moves; Reopen is the only way back to BORRADOR.
var transitions = map[Status]map[Status]bool{
	StatusBorrador:   {StatusCompletado: true},
	StatusCompletado: {StatusBorrador: true},
}

func CanTransition(from, to Status) bool {
	if from == "" {
		return to == StatusBorrador
	}
	return transitions[from][to]
}

// Entity is one stage-3 sub-entity of a project record.
type Entity struct {
	ProjectID   string              `json:"project_id"`
	Kind        Kind                `json:"kind"`
	Status      Status              `json:"status"`
	Data        acceldomain.Payload `json:"data"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewEntity returns an unsaved draft with no data.
func NewEntity(projectID string, kind Kind) *Entity {
	return &Entity{
		ProjectID: projectID,
		Kind:      kind,
		Status:    StatusBorrador,
		Data:      acceldomain.Payload{},
	}
}
