package httpx

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-propagation/errcode"
	"github.com/KOMKZ/go-yogan-propagation/validator"
	"github.com/gin-gonic/gin"
)

// ErrBadRequest is returned for bodies that do not decode.
var ErrBadRequest = errcode.Register(errcode.New(1, 1001, "common",
	"error.common.bad_request", "bad request", http.StatusBadRequest))

// HandlerFunc is a typed handler: Req is bound from the request and Resp is
// written inside the success envelope.
type HandlerFunc[Req any, Resp any] func(c *gin.Context, req *Req) (*Resp, error)

// Wrap adapts a typed handler to gin. Requests implementing
// validator.Validatable are validated before the handler runs.
func Wrap[Req any, Resp any](handler HandlerFunc[Req, Resp]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Req
		if err := Parse(c, &req); err != nil {
			HandleError(c, err)
			return
		}
		if v, ok := any(&req).(validator.Validatable); ok {
			if err := validator.ValidateRequest(v); err != nil {
				HandleError(c, err)
				return
			}
		}
		resp, err := handler(c, &req)
		if err != nil {
			HandleError(c, err)
			return
		}
		OkJson(c, resp)
	}
}
