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

	"github.com/cnpie-acelerador/cnpie-backend/internal/auth"
	"github.com/cnpie-acelerador/cnpie-backend/internal/progress/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/progress/service"
)

type memSessions struct {
	rows map[string]*domain.Session
}

func (m *memSessions) ListByUser(_ context.Context, userID string) ([]*domain.Session, error) {
	var out []*domain.Session
	for _, s := range m.rows {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessions) Start(_ context.Context, userID, module string) (*domain.Session, error) {
	if s, ok := m.rows[module]; ok {
		return s, nil
	}
	s := &domain.Session{UserID: userID, Module: module, Status: domain.SessionInProgress}
	m.rows[module] = s
	return s, nil
}

func (m *memSessions) Advance(_ context.Context, _, module string, step int, _ map[string]any) (*domain.Session, error) {
	s, ok := m.rows[module]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.Status == domain.SessionCompleted {
		return nil, domain.ErrSessionClosed
	}
	s.CurrentStep = step
	return s, nil
}

func (m *memSessions) Complete(_ context.Context, _, module string) (*domain.Session, error) {
	s, ok := m.rows[module]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.Status = domain.SessionCompleted
	return s, nil
}

func TestProgressRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) { c.Set(auth.CtxUserDBID, "u-1") })
	New(service.NewService(&memSessions{rows: map[string]*domain.Session{}})).Register(api)

	send := func(method, path, body string) (int, map[string]any) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
		var out map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &out)
		return w.Code, out
	}

	code, _ := send(http.MethodPut, "/api/v1/progress/sessions/acelerador_1", `{"current_step":2}`)
	assert.Equal(t, http.StatusNotFound, code)

	for _, m := range []string{"acelerador_1", "acelerador_2", "acelerador_3"} {
		code, _ = send(http.MethodPost, "/api/v1/progress/sessions/"+m+"/start", "")
		require.Equal(t, http.StatusOK, code)
	}

	code, body := send(http.MethodPut, "/api/v1/progress/sessions/acelerador_1", `{"current_step":3}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(50), body["progress"])

	code, _ = send(http.MethodPut, "/api/v1/progress/sessions/acelerador_1", `{"data":{}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = send(http.MethodPut, "/api/v1/progress/sessions/acelerador_1", `{"current_step":8}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = send(http.MethodPost, "/api/v1/progress/sessions/acelerador_2/complete", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(100), body["progress"])

	code, _ = send(http.MethodPut, "/api/v1/progress/sessions/acelerador_2", `{"current_step":1}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body = send(http.MethodGet, "/api/v1/progress", "")
	require.Equal(t, http.StatusOK, code)
	// 50, 100, 0 -> 50
	assert.Equal(t, float64(50), body["progress"].(map[string]any)["overall"])
}
