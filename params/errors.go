package params

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-resource-query/dictionary"
)

// ReasonKind identifies the rule a parameter violated.
type ReasonKind string

const (
	MissingRequiredParameter ReasonKind = "missing_required_parameter"
	BelowMinimumLength       ReasonKind = "below_minimum_length"
	AboveMaximumLength       ReasonKind = "above_maximum_length"
	NotAllowedValue          ReasonKind = "not_allowed_value"
	InvalidType              ReasonKind = "invalid_type"
)

// Reason is one field-level rule violation.
type Reason struct {
	Kind    ReasonKind
	Param   string
	Value   string
	Min     int
	Max     int
	Allowed []string
	Type    dictionary.Type
}

// Message renders the violation for humans.
func (r Reason) Message() string {
	switch r.Kind {
	case MissingRequiredParameter:
		return "required parameter is missing"
	case BelowMinimumLength:
		return fmt.Sprintf("must be at least %d characters", r.Min)
	case AboveMaximumLength:
		return fmt.Sprintf("must be at most %d characters", r.Max)
	case NotAllowedValue:
		return fmt.Sprintf("must be one of [%s]", strings.Join(r.Allowed, ", "))
	case InvalidType:
		return fmt.Sprintf("must be a valid %s", r.Type)
	}
	return string(r.Kind)
}

func (r Reason) String() string {
	return r.Param + ": " + r.Message()
}

// ValidationError carries every rule violation of one request, in
// dictionary order.
type ValidationError struct {
	Resource string
	Reasons  []Reason
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		parts[i] = r.String()
	}
	return fmt.Sprintf("invalid parameters for %s: %s", e.Resource, strings.Join(parts, "; "))
}

// Has reports whether a violation of kind exists for param.
func (e *ValidationError) Has(kind ReasonKind, param string) bool {
	for _, r := range e.Reasons {
		if r.Kind == kind && r.Param == param {
			return true
		}
	}
	return false
}

// ToError converts the violations into a structured validation error.
func (e *ValidationError) ToError() *goerrors.Error {
	fields := make([]goerrors.FieldError, len(e.Reasons))
	for i, r := range e.Reasons {
		fe := goerrors.FieldError{Field: r.Param, Message: r.Message()}
		if r.Value != "" {
			fe.Value = r.Value
		}
		fields[i] = fe
	}
	return goerrors.NewValidation("invalid parameters for "+e.Resource, fields...).
		WithCode(400).
		WithTextCode("INVALID_PARAMETERS").
		WithMetadata(map[string]any{"resource": e.Resource})
}
