// Package errcode defines layered error codes shared by every package of the module.
// Code layout: MMBBBB (MM = two-digit module code, BBBB = four-digit business code).
package errcode

import (
	"fmt"
	"net/http"
)

// LayeredError is an immutable coded error. Every With* method returns a copy.
type LayeredError struct {
	module     string
	code       int
	msgKey     string
	msg        string
	httpStatus int
	data       map[string]interface{}
	cause      error
}

// New builds a layered error. httpStatus is optional and defaults to 500.
func New(moduleCode, businessCode int, module, msgKey, msg string, httpStatus ...int) *LayeredError {
	status := http.StatusInternalServerError
	if len(httpStatus) > 0 {
		status = httpStatus[0]
	}
	return &LayeredError{
		module:     module,
		code:       moduleCode*10000 + businessCode,
		msgKey:     msgKey,
		msg:        msg,
		httpStatus: status,
		data:       make(map[string]interface{}),
	}
}

func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code returns the full MMBBBB code.
func (e *LayeredError) Code() int { return e.code }

// Module returns the owning module name.
func (e *LayeredError) Module() string { return e.module }

// MsgKey returns the i18n message key.
func (e *LayeredError) MsgKey() string { return e.msgKey }

// Message returns the message without the cause.
func (e *LayeredError) Message() string { return e.msg }

// HTTPStatus returns the status used when the error crosses an HTTP boundary.
func (e *LayeredError) HTTPStatus() int { return e.httpStatus }

// Data returns the attached context data.
func (e *LayeredError) Data() map[string]interface{} { return e.data }

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *LayeredError) Unwrap() error { return e.cause }

// Is matches any LayeredError carrying the same code.
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

// WithMsgf replaces the message.
func (e *LayeredError) WithMsgf(format string, args ...interface{}) *LayeredError {
	clone := *e
	clone.msg = fmt.Sprintf(format, args...)
	return &clone
}

// WithData attaches one context value.
func (e *LayeredError) WithData(key string, value interface{}) *LayeredError {
	clone := *e
	clone.data = make(map[string]interface{}, len(e.data)+1)
	for k, v := range e.data {
		clone.data[k] = v
	}
	clone.data[key] = value
	return &clone
}

// Wrap records cause as the underlying error. A nil cause returns e unchanged.
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// WithHTTPStatus overrides the HTTP status.
func (e *LayeredError) WithHTTPStatus(status int) *LayeredError {
	clone := *e
	clone.httpStatus = status
	return &clone
}

func (e *LayeredError) String() string {
	if e.cause != nil {
		return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s, cause:%v}", e.code, e.module, e.msg, e.cause)
	}
	return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s}", e.code, e.module, e.msg)
}
