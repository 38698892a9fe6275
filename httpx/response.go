// Package httpx holds the JSON envelope and error mapping shared by the
// playground's HTTP handlers.
package httpx

import (
	"errors"
	"net/http"

	"github.com/KOMKZ/go-yogan-propagation/errcode"
	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the envelope every endpoint answers with. Code 0 is success;
// failures carry the LayeredError code.
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// OkJson writes a 200 success envelope.
func OkJson(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Msg: "success", Data: data})
}

func statusJson(c *gin.Context, status int, msg string) {
	c.JSON(status, Response{Code: status, Msg: msg})
}

// NoRouteHandler answers unmatched routes with a 404 envelope.
func NoRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		statusJson(c, http.StatusNotFound, "route not found: "+c.Request.Method+" "+c.Request.URL.Path)
	}
}

// NoMethodHandler answers a known path with the wrong method.
func NoMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		statusJson(c, http.StatusMethodNotAllowed, "method not allowed: "+c.Request.Method+" "+c.Request.URL.Path)
	}
}

// HandleError maps err onto the envelope. A LayeredError keeps its code,
// message, HTTP status and data; anything else becomes a 500.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	ctx := c.Request.Context()
	cfg := errorLoggingFrom(c)
	log := logger.GetLogger("httpx")

	var layered *errcode.LayeredError
	if errors.As(err, &layered) {
		if cfg.shouldLog(layered.HTTPStatus()) {
			fields := []zap.Field{
				zap.Int("error_code", layered.Code()),
				zap.String("error_msg", layered.Message()),
			}
			if cfg.FullErrorChain {
				fields = append(fields, zap.String("error_chain", layered.String()), zap.Error(err))
			}
			switch cfg.LogLevel {
			case "warn":
				log.WarnCtx(ctx, "request failed", fields...)
			case "info":
				log.InfoCtx(ctx, "request failed", fields...)
			default:
				log.ErrorCtx(ctx, "request failed", fields...)
			}
		}
		c.JSON(layered.HTTPStatus(), Response{
			Code: layered.Code(),
			Msg:  layered.Message(),
			Data: layered.Data(),
		})
		return
	}

	if cfg.Enable {
		log.ErrorCtx(ctx, "request failed", zap.Error(err))
	}
	statusJson(c, http.StatusInternalServerError, err.Error())
}
