package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	acceldomain "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/etapa3/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/etapa3/service"
)

type staticResolver struct{}

func (staticResolver) RecordID(_ context.Context, userID string, pt acceldomain.ProjectType) (string, error) {
	return userID + "-" + string(pt), nil
}

type memStore struct {
	rows map[string]*domain.Entity
}

func (m *memStore) List(_ context.Context, projectID string) ([]*domain.Entity, error) {
	var out []*domain.Entity
	for _, e := range m.rows {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) Get(_ context.Context, projectID string, kind domain.Kind) (*domain.Entity, error) {
	e, ok := m.rows[projectID+string(kind)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *e
	return &c, nil
}

func (m *memStore) Upsert(_ context.Context, e *domain.Entity) error {
	c := *e
	m.rows[e.ProjectID+string(e.Kind)] = &c
	return nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/projects/:project_type")
	New(service.NewService(&memStore{rows: map[string]*domain.Entity{}}), staticResolver{}).Register(g)
	return r
}

func call(r http.Handler, method, path, body string) (int, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestEtapa3Routes(t *testing.T) {
	r := newRouter()
	const base = "/projects/gestion_escolar/etapa3"

	code, body := call(r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["entities"], 3)

	code, _ = call(r, http.MethodPost, base+"/evaluacion/complete", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = call(r, http.MethodPut, base+"/evaluacion", `{"indicadores":["asistencia"]}`)
	assert.Equal(t, http.StatusOK, code)

	code, body = call(r, http.MethodPost, base+"/evaluacion/complete", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "COMPLETADO", body["entity"].(map[string]any)["status"])

	code, _ = call(r, http.MethodPut, base+"/evaluacion", `{"indicadores":[]}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body = call(r, http.MethodPost, base+"/evaluacion/reopen", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "BORRADOR", body["entity"].(map[string]any)["status"])

	code, _ = call(r, http.MethodPut, base+"/presupuesto", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(r, http.MethodGet, "/projects/otro/etapa3", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
