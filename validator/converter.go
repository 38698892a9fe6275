// Package validator turns ozzo-validation failures into coded errors.
package validator

import (
	"errors"
	"net/http"

	"github.com/KOMKZ/go-yogan-propagation/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrValidationFailed carries per-field messages under the "fields" data key.
var ErrValidationFailed = errcode.Register(errcode.New(1, 1010, "common",
	"error.common.validation_failed", "validation failed", http.StatusBadRequest))

// Validatable is anything with a Validate method, ozzo-style.
type Validatable interface {
	Validate() error
}

// ValidateRequest runs req.Validate and converts ozzo field errors into
// ErrValidationFailed. Other errors are returned as is.
func ValidateRequest(req Validatable) error {
	err := req.Validate()
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return ConvertValidationError(fieldErrs)
	}
	return err
}

// ConvertValidationError flattens nested ozzo errors into dotted field names.
func ConvertValidationError(errs validation.Errors) *errcode.LayeredError {
	fields := make(map[string]string)
	flatten("", errs, fields)
	return ErrValidationFailed.WithData("fields", fields)
}

func flatten(prefix string, errs validation.Errors, out map[string]string) {
	for field, err := range errs {
		if err == nil {
			continue
		}
		name := field
		if prefix != "" {
			name = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(name, nested, out)
			continue
		}
		out[name] = err.Error()
	}
}

// Fields returns the per-field messages attached by ConvertValidationError.
func Fields(err error) map[string]string {
	var le *errcode.LayeredError
	if !errors.As(err, &le) {
		return nil
	}
	fields, _ := le.Data()["fields"].(map[string]string)
	return fields
}
