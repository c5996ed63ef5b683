package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{
		MissingRequired: []string{"tank_id", "timestamp"},
		UnmappedFields:  []string{"שדה חופשי"},
	}
	msg := err.Error()
	if !strings.Contains(msg, "tank_id") || !strings.Contains(msg, "timestamp") {
		t.Fatalf("message = %q", msg)
	}
	if !strings.Contains(msg, "שדה חופשי") {
		t.Fatalf("message = %q", msg)
	}
}

func TestAsValidation(t *testing.T) {
	inner := &ValidationError{MissingRequired: []string{"tank_id"}}
	wrapped := fmt.Errorf("ingest: %w", inner)

	ve, ok := AsValidation(wrapped)
	if !ok || ve != inner {
		t.Fatalf("AsValidation = %v, %v", ve, ok)
	}
	if _, ok := AsValidation(fmt.Errorf("plain failure")); ok {
		t.Fatal("plain errors are not validation errors")
	}
	if _, ok := AsValidation(nil); ok {
		t.Fatal("nil is not a validation error")
	}
}
