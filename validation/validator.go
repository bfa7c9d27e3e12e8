package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/authkit/errors"
)

// FieldError is one violation, reported under the request's field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Fields collects violations for checks that struct tags cannot express,
// such as bounds that come from configuration.
type Fields struct {
	errs []FieldError
}

// New returns an empty collector.
func New() *Fields {
	return &Fields{}
}

// Add records a violation on field.
func (f *Fields) Add(field, message string) *Fields {
	f.errs = append(f.errs, FieldError{Field: field, Message: message})
	return f
}

// Length checks that value holds between minLen and maxLen bytes.
// A non-positive bound is not enforced.
func (f *Fields) Length(field, value string, minLen, maxLen int) *Fields {
	switch n := len(value); {
	case minLen > 0 && n < minLen:
		f.Add(field, fmt.Sprintf("must be at least %d characters", minLen))
	case maxLen > 0 && n > maxLen:
		f.Add(field, fmt.Sprintf("must be at most %d characters", maxLen))
	}
	return f
}

// Errors returns the recorded violations in order.
func (f *Fields) Errors() []FieldError {
	return f.errs
}

// Err returns a VALIDATION_ERROR describing every violation, or nil.
func (f *Fields) Err() error {
	if len(f.errs) == 0 {
		return nil
	}
	return fieldsError(f.errs)
}

func fieldsError(fields []FieldError) *errors.AppError {
	parts := make([]string, len(fields))
	for i, e := range fields {
		parts[i] = e.Field + ": " + e.Message
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", fields)
}
