package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ValidationError describes a report payload that cannot be normalized:
// required fields that did not resolve through the alias table, plus any
// labels that resolved to nothing at all.
type ValidationError struct {
	MissingRequired []string
	UnmappedFields  []string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	parts := []string{"validation failed"}
	if len(e.MissingRequired) > 0 {
		parts = append(parts, fmt.Sprintf("missing required: [%s]", strings.Join(e.MissingRequired, ", ")))
	}
	if len(e.UnmappedFields) > 0 {
		parts = append(parts, fmt.Sprintf("unmapped: [%s]", strings.Join(e.UnmappedFields, ", ")))
	}
	return strings.Join(parts, "; ")
}

// AsValidation unwraps err into a *ValidationError if one is in the chain.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
