package domain

import "sort"

// Schema describes the fields an accelerator screen requires before it
// offers the "validate" action.
type Schema struct {
	Title    string   `json:"title"`
	Required []string `json:"required"`
}

// Readiness is the server-side mirror of the wizard's canProceed predicate.
type Readiness struct {
	CanProceed bool     `json:"can_proceed"`
	Missing    []string `json:"missing,omitempty"`
}

var schemas = map[StageKey]Schema{
	"stage1_accelerator1": {Title: "Datos de la institución", Required: []string{"nombre_institucion", "codigo_modular", "region"}},
	"stage1_accelerator2": {Title: "Equipo del proyecto", Required: []string{"responsable", "integrantes"}},
	"stage1_accelerator3": {Title: "Problema priorizado", Required: []string{"problema", "causas", "efectos"}},
	"stage1_accelerator4": {Title: "Población beneficiaria", Required: []string{"beneficiarios", "cantidad"}},
	"stage2_accelerator1": {Title: "Objetivos", Required: []string{"objetivo_general", "objetivos_especificos"}},
	"stage2_accelerator2": {Title: "Alternativa de solución", Required: []string{"alternativa", "justificacion"}},
	"stage2_accelerator3": {Title: "Sustento teórico", Required: []string{"marco_teorico"}},
	"stage2_accelerator4": {Title: "Actividades", Required: []string{"actividades"}},
	"stage3_accelerator1": {Title: "Cronograma", Required: []string{"cronograma"}},
	"stage3_accelerator2": {Title: "Presupuesto", Required: []string{"presupuesto"}},
	"stage3_accelerator3": {Title: "Sostenibilidad", Required: []string{"sostenibilidad", "evaluacion"}},
}

// SchemaFor returns the registered schema for a key. Unknown keys get an
// empty schema, for which any non-empty payload is ready.
func SchemaFor(key StageKey) Schema {
	return schemas[key]
}

// Evaluate checks a payload against the schema.
func (s Schema) Evaluate(p Payload) Readiness {
	var missing []string
	for _, field := range s.Required {
		if v, ok := p[field]; !ok || isBlank(v) {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return Readiness{
		CanProceed: len(missing) == 0 && !p.IsEmpty(),
		Missing:    missing,
	}
}
