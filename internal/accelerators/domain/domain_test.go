package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageKey(t *testing.T) {
	assert.Equal(t, StageKey("stage2_accelerator3"), NewStageKey(2, 3))

	key, stage, acc, err := ParseStageKey("stage10_accelerator1")
	require.NoError(t, err)
	assert.Equal(t, StageKey("stage10_accelerator1"), key)
	assert.Equal(t, 10, stage)
	assert.Equal(t, 1, acc)

	for _, bad := range []string{"", "stage0_accelerator1", "stage1_accelerator", "etapa1_acelerador1", "stage1_accelerator1x"} {
		_, _, _, err := ParseStageKey(bad)
		assert.True(t, errors.Is(err, ErrInvalidStageKey), bad)
	}
}

func TestLayout_Check(t *testing.T) {
	l := Layout{2, 1}

	assert.NoError(t, l.Check(1, 2))
	assert.NoError(t, l.Check(2, 1))
	assert.ErrorIs(t, l.Check(0, 1), ErrInvalidStage)
	assert.ErrorIs(t, l.Check(3, 1), ErrInvalidStage)
	assert.ErrorIs(t, l.Check(2, 2), ErrInvalidStage)

	assert.Equal(t, []StageKey{"stage1_accelerator1", "stage1_accelerator2", "stage2_accelerator1"}, l.Keys())
}

func TestParseProjectType(t *testing.T) {
	pt, err := ParseProjectType("gestion_escolar")
	require.NoError(t, err)
	assert.Equal(t, ProjectTypeGestionEscolar, pt)

	_, err = ParseProjectType("otro")
	assert.ErrorIs(t, err, ErrInvalidProjectType)
	assert.Len(t, ProjectTypes(), 4)
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload([]byte(`{"problema":"deserción","causas":["a","b"]}`))
	require.NoError(t, err)
	assert.Equal(t, "deserción", p["problema"])

	for _, raw := range []string{`[1,2]`, `"text"`, `null`, `{`} {
		_, err := ParsePayload([]byte(raw))
		assert.ErrorIs(t, err, ErrInvalidPayload, raw)
	}
}

func TestPayload_IsEmpty(t *testing.T) {
	assert.True(t, Payload(nil).IsEmpty())
	assert.True(t, Payload{}.IsEmpty())
	assert.True(t, Payload{"a": "  ", "b": []any{}, "c": map[string]any{"d": nil}}.IsEmpty())
	assert.False(t, Payload{"a": 0.0}.IsEmpty())
	assert.False(t, Payload{"a": false}.IsEmpty())
	assert.False(t, Payload{"a": []any{"x"}}.IsEmpty())
}

func TestProjectRecord_Clone(t *testing.T) {
	rec := NewProjectRecord("id-1", "uid-1", ProjectTypeInvestigacionAccion, time.Now())
	rec.StageData["stage1_accelerator1"] = Payload{"nested": map[string]any{"x": "y"}, "list": []any{"a"}}
	rec.StageCompletion["stage1_accelerator1"] = StatusCompleted

	cp := rec.Clone()
	cp.StageData["stage1_accelerator1"]["nested"].(map[string]any)["x"] = "changed"
	cp.StageData["stage1_accelerator1"]["list"].([]any)[0] = "changed"
	delete(cp.StageCompletion, "stage1_accelerator1")

	assert.Equal(t, "y", rec.StageData["stage1_accelerator1"]["nested"].(map[string]any)["x"])
	assert.Equal(t, "a", rec.StageData["stage1_accelerator1"]["list"].([]any)[0])
	assert.Equal(t, StatusCompleted, rec.StatusOf("stage1_accelerator1"))
	assert.Equal(t, StatusDraft, cp.StatusOf("stage1_accelerator1"))
}

func TestProjectRecord_Ahead(t *testing.T) {
	rec := &ProjectRecord{CurrentStage: 2, CurrentAccelerator: 3}

	assert.True(t, rec.Ahead(2, 4))
	assert.True(t, rec.Ahead(3, 1))
	assert.False(t, rec.Ahead(2, 3))
	assert.False(t, rec.Ahead(1, 9))
}

func TestSchema_Evaluate(t *testing.T) {
	s := SchemaFor("stage1_accelerator3")
	require.NotEmpty(t, s.Required)

	r := s.Evaluate(Payload{"problema": "bajo rendimiento", "causas": ""})
	assert.False(t, r.CanProceed)
	assert.Equal(t, []string{"causas", "efectos"}, r.Missing)

	r = s.Evaluate(Payload{"problema": "x", "causas": []any{"c"}, "efectos": "e"})
	assert.True(t, r.CanProceed)
	assert.Empty(t, r.Missing)

	unknown := SchemaFor("stage9_accelerator9")
	assert.False(t, unknown.Evaluate(Payload{}).CanProceed)
	assert.True(t, unknown.Evaluate(Payload{"any": "value"}).CanProceed)
}
