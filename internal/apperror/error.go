package apperror

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind classifies failures raised by the profile pipeline.
type Kind string

const (
	KindUnauthenticated  Kind = "UNAUTHENTICATED"
	KindForbidden        Kind = "FORBIDDEN"
	KindValidation       Kind = "VALIDATION_ERROR"
	KindNoFieldsProvided Kind = "NO_FIELDS_PROVIDED"
	KindNotFound         Kind = "NOT_FOUND"
	KindUpstream         Kind = "UPSTREAM_FAILURE"
	KindBadUpload        Kind = "BAD_UPLOAD"
	KindInternal         Kind = "INTERNAL_ERROR"
)

// FieldError describes one failing field of a ValidationError.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed failure carried from the core to the HTTP boundary.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		return fmt.Sprintf("%s: %s [%s]", e.Kind, e.Message, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind to the status code used in responses.
func (e *Error) HTTPStatus() int {
	return StatusFor(e.Kind)
}

func StatusFor(kind Kind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation, KindNoFieldsProvided, KindBadUpload:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden wraps cause (may be nil) so token parsing detail stays available to logs.
func Forbidden(message string, cause error) *Error {
	return &Error{Kind: KindForbidden, Message: message, Err: cause}
}

func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "invalid data", Fields: fields}
}

func NoFieldsProvided() *Error {
	return &Error{Kind: KindNoFieldsProvided, Message: "no data provided for update"}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func Upstream(cause error, message string) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: cause}
}

func BadUpload(message string) *Error {
	return &Error{Kind: KindBadUpload, Message: message}
}

func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: cause}
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns KindInternal for errors that carry no *Error.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
