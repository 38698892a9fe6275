package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KOMKZ/go-yogan-propagation/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetRequest struct {
	Name string `json:"name"`
}

func (r *greetRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.Name, validation.Required))
}

type greetResponse struct {
	Greeting string `json:"greeting"`
}

var errGone = errcode.New(99, 1, "test", "error.test.gone", "gone", http.StatusGone)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(ErrorLoggingMiddleware(ErrorLoggingConfig{Enable: true, IgnoreHTTPStatus: []int{http.StatusBadRequest}}))
	engine.NoRoute(NoRouteHandler())
	engine.NoMethod(NoMethodHandler())
	engine.POST("/greet", Wrap(func(_ *gin.Context, req *greetRequest) (*greetResponse, error) {
		switch req.Name {
		case "gone":
			return nil, errGone.WithData("who", req.Name)
		case "boom":
			return nil, errors.New("boom")
		}
		return &greetResponse{Greeting: "hello " + req.Name}, nil
	}))
	return engine
}

func post(engine *gin.Engine, body string) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/greet", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestWrap(t *testing.T) {
	engine := newEngine()

	t.Run("success", func(t *testing.T) {
		w, resp := post(engine, `{"name":"world"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, resp.Code)
		assert.Equal(t, map[string]interface{}{"greeting": "hello world"}, resp.Data)
	})

	t.Run("malformed body", func(t *testing.T) {
		w, resp := post(engine, `{"name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ErrBadRequest.Code(), resp.Code)
	})

	t.Run("validation", func(t *testing.T) {
		w, resp := post(engine, `{"name":""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 11010, resp.Code)
		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, data["fields"], "name")
	})

	t.Run("layered error", func(t *testing.T) {
		w, resp := post(engine, `{"name":"gone"}`)
		assert.Equal(t, http.StatusGone, w.Code)
		assert.Equal(t, errGone.Code(), resp.Code)
		assert.Equal(t, map[string]interface{}{"who": "gone"}, resp.Data)
	})

	t.Run("plain error", func(t *testing.T) {
		w, resp := post(engine, `{"name":"boom"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "boom", resp.Msg)
	})
}

func TestFallbackHandlers(t *testing.T) {
	engine := newEngine()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "route not found")

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/greet", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestErrorLogging_ShouldLog(t *testing.T) {
	cfg := errorLogging{ErrorLoggingConfig: ErrorLoggingConfig{Enable: true}, ignore: map[int]bool{404: true}}
	assert.True(t, cfg.shouldLog(500))
	assert.False(t, cfg.shouldLog(404))
	cfg.Enable = false
	assert.False(t, cfg.shouldLog(500))
}
