package validation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"uigen/internal/errors"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator. Field names in errors are taken
// from json tags so they match what callers actually sent.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// FieldError describes a single failed constraint.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// Describe renders a field error as a short sentence.
func (f FieldError) Describe() string {
	switch f.Rule {
	case "required":
		return fmt.Sprintf("missing required field %q", f.Field)
	case "len":
		return fmt.Sprintf("field %q must have exactly %s elements", f.Field, f.Param)
	case "oneof":
		return fmt.Sprintf("field %q must be one of [%s]", f.Field, f.Param)
	default:
		return fmt.Sprintf("field %q failed %q validation", f.Field, f.Rule)
	}
}

// Struct validates v and converts failures into a VALIDATION error whose
// details list every offending field.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ValidationError(err.Error(), nil)
	}

	fields := make([]FieldError, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		f := FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
		fields = append(fields, f)
		msgs = append(msgs, f.Describe())
	}
	return errors.ValidationError(strings.Join(msgs, "; "), fields)
}

// Fields extracts the field list from an error produced by Struct.
func Fields(err error) []FieldError {
	if e, ok := errors.As(err); ok {
		if fields, ok := e.Details.([]FieldError); ok {
			return fields
		}
	}
	return nil
}

// DecodeRequest decodes a JSON request body into v and validates it.
func DecodeRequest(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.ValidationError("invalid request body", nil)
	}
	return Struct(v)
}
