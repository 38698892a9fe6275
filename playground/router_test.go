package playground

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-propagation/health"
	"github.com/KOMKZ/go-yogan-propagation/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := DefaultRouterConfig()
	cfg.Metrics = middleware.NewHTTPMetrics(false)
	return NewRouter(NewRunner(), cfg)
}

func postScenario(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/scenarios/run", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestRouter_Run(t *testing.T) {
	r := newTestRouter()
	w, env := postScenario(t, r, `{
		"name": "http",
		"nodes": [{"id": "box", "parent": "document"}],
		"listeners": [
			{"id": "cap", "node": "document", "type": "click", "capture": true},
			{"id": "box", "node": "box", "type": "click", "actions": ["prevent_default"]}
		],
		"dispatches": [{"target": "box", "type": "click", "cancelable": true}]
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.TraceIDHeader))

	var res Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "http", res.Scenario)
	require.Len(t, res.Dispatches, 1)
	assert.Equal(t, []string{"document:cap:capturing", "box:box:at_target"}, res.Dispatches[0].Labels())
	assert.False(t, res.Dispatches[0].NotCanceled)
}

func TestRouter_Errors(t *testing.T) {
	r := newTestRouter()

	w, env := postScenario(t, r, `{"dispatches": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 11010, env.Code, "structural problems answer with the common validation code")

	w, env = postScenario(t, r, `{"dispatches": [{"target": "ghost", "type": "click"}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrUnknownNode.Code(), env.Code)

	w, env = postScenario(t, r, `{"dispatches": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotZero(t, env.Code)
}

func TestRouter_Healthz(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/scenarios/run", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_HealthzAggregate(t *testing.T) {
	agg := health.NewAggregator(time.Second)
	agg.Register(health.CheckerFunc("event", func(context.Context) error { return nil }))
	cfg := DefaultRouterConfig()
	cfg.Health = agg
	r := NewRouter(NewRunner(), cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	agg.Register(health.CheckerFunc("kafka", func(context.Context) error { return errors.New("producer closed") }))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "producer closed")
}
