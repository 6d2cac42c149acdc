package claim

import (
	"errors"
	"fmt"
)

// Kind classifies a ValidationError.
type Kind string

const (
	KindUnknownSchema Kind = "UnknownSchema"
	KindMissingField  Kind = "MissingField"
	KindTypeMismatch  Kind = "TypeMismatch"
)

// Sentinels matched by ValidationError.Is.
var (
	ErrUnknownSchema = errors.New("unknown schema")
	ErrMissingField  = errors.New("missing field")
	ErrTypeMismatch  = errors.New("type mismatch")
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnknownSchema:
		return ErrUnknownSchema
	case KindMissingField:
		return ErrMissingField
	case KindTypeMismatch:
		return ErrTypeMismatch
	default:
		return nil
	}
}

// ValidationError reports claim input that does not fit its schema.
type ValidationError struct {
	Kind   Kind
	Schema string
	Field  string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("claim validation failed (%s): schema %q", e.Kind, e.Schema)
	if e.Field != "" {
		msg += fmt.Sprintf(", field %q", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of this error's kind.
func (e *ValidationError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func unknownSchema(name string) error {
	return &ValidationError{Kind: KindUnknownSchema, Schema: name}
}

func missingField(schema, field string) error {
	return &ValidationError{Kind: KindMissingField, Schema: schema, Field: field}
}

func typeMismatch(schema, field string, err error) error {
	return &ValidationError{Kind: KindTypeMismatch, Schema: schema, Field: field, Err: err}
}
