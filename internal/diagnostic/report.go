package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"scim-patch/internal/common"
)

// Report holds the diagnostic information of a patch batch.
type Report struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// Code is the error kind name for this diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// Operation identifies the patch operation, e.g. "#2 add emails".
	Operation string
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota + 1
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError records err against an operation. *Error values keep their kind
// and suggestions.
func (r *Report) AddError(operation string, err error) {
	r.Errors = append(r.Errors, fromError(SeverityError, operation, err))
}

// AddWarning records a non fatal condition against an operation.
func (r *Report) AddWarning(operation, code, message string) {
	r.Warnings = append(r.Warnings, Diagnostic{
		Severity:  SeverityWarning,
		Code:      code,
		Message:   message,
		Operation: operation,
	})
}

// HasErrors returns true if there are any error diagnostics.
func (r Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// Merge merges another Report into this one.
func (r *Report) Merge(other Report) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Error returns a combined error from all error diagnostics, or nil if there are none.
func (r Report) Error() error {
	if !r.HasErrors() {
		return nil
	}

	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	if d.Operation != "" {
		return d.Operation + ": " + msg
	}

	return msg
}

func fromError(severity Severity, operation string, err error) Diagnostic {
	d := Diagnostic{Severity: severity, Operation: operation}

	var e *Error
	if !errors.As(err, &e) {
		d.Message = err.Error()
		return d
	}

	d.Code = e.Kind.String()
	d.Suggestions = e.Suggestions

	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}

	d.Message = msg

	return d
}
