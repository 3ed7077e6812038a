package audit

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExtractionExhausted means no matcher found any candidate region
	ErrExtractionExhausted = errors.New("no candidate region found in model output")

	// ErrTotalFailure is the terminal condition: every candidate was rejected
	ErrTotalFailure = errors.New("no candidate produced a valid audit report")
)

// Normalization phases
const (
	PhaseStrict   = "strict"   // direct candidate, parsed without repair
	PhaseLiteral  = "literal"  // decoding the escaped text as one string literal
	PhaseDocument = "document" // decoding the repaired text as JSON
)

// NormalizationError reports a candidate that could not be repaired into JSON
type NormalizationError struct {
	Phase   string
	Offset  int64  // byte offset into the text being decoded
	Context string // up to 30 bytes either side of Offset
	Err     error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize (%s) failed at offset %d near %q: %v", e.Phase, e.Offset, e.Context, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// Rule names a violated schema check
type Rule string

const (
	RuleMissing    Rule = "missing"
	RuleWrongType  Rule = "wrong_type"
	RuleEmpty      Rule = "empty"
	RuleOutOfRange Rule = "out_of_range"
	RuleTooShort   Rule = "too_short"
)

// ValidationError reports the first schema check a parsed value failed
type ValidationError struct {
	Field  string
	Rule   Rule
	Detail string
}

func (e *ValidationError) Error() string {
	field := e.Field
	if field == "" {
		field = "<root>"
	}
	if e.Detail == "" {
		return fmt.Sprintf("field %s: %s", field, e.Rule)
	}
	return fmt.Sprintf("field %s: %s (%s)", field, e.Rule, e.Detail)
}

// Attempt records why one candidate was rejected
type Attempt struct {
	Matcher string
	Err     error
}

// FailureError is returned when no candidate survived. It matches
// ErrTotalFailure, and also ErrExtractionExhausted when there were no
// candidates at all.
type FailureError struct {
	Attempts []Attempt
}

func (e *FailureError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrTotalFailure.Error() + ": " + ErrExtractionExhausted.Error()
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Matcher+": "+a.Err.Error())
	}
	return ErrTotalFailure.Error() + ": " + strings.Join(parts, "; ")
}

func (e *FailureError) Unwrap() []error {
	errs := []error{ErrTotalFailure}
	if len(e.Attempts) == 0 {
		errs = append(errs, ErrExtractionExhausted)
	}
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}
