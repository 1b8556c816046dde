// Package errors provides severity-aware error types for the calculation engine.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error codes
const (
	CodeInvalidParameter     = "INVALID_PARAMETER"
	CodeInconsistentCoupling = "INCONSISTENT_COUPLING"
	CodeSamplingError        = "SAMPLING_ERROR"
)

// Sentinels for errors.Is. Any EngineError matches the sentinel carrying its code.
var (
	ErrInvalidParameter     = &EngineError{Code: CodeInvalidParameter}
	ErrInconsistentCoupling = &EngineError{Code: CodeInconsistentCoupling}
	ErrSampling             = &EngineError{Code: CodeSamplingError}
)

// EngineError is a structured error naming the stage and parameter that failed.
type EngineError struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Stage     string   `json:"stage,omitempty"`
	Parameter string   `json:"parameter,omitempty"`
	Value     float64  `json:"value"`
}

func (e *EngineError) Error() string {
	switch {
	case e.Stage != "" && e.Parameter != "":
		return fmt.Sprintf("[%s] %s: %s.%s=%g: %s", e.Severity, e.Code, e.Stage, e.Parameter, e.Value, e.Message)
	case e.Parameter != "":
		return fmt.Sprintf("[%s] %s: %s=%g: %s", e.Severity, e.Code, e.Parameter, e.Value, e.Message)
	default:
		return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
	}
}

// Is reports whether target is an EngineError with the same code.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewInvalidParameter creates an error for a value outside its physical domain.
func NewInvalidParameter(stage, parameter string, value float64, reason string) *EngineError {
	return &EngineError{
		Code:      CodeInvalidParameter,
		Message:   reason,
		Severity:  SeverityError,
		Stage:     stage,
		Parameter: parameter,
		Value:     value,
	}
}

// NewInconsistentCoupling creates an error for stoichiometric inputs that cannot be reconciled.
func NewInconsistentCoupling(stage, parameter string, value float64, reason string) *EngineError {
	return &EngineError{
		Code:      CodeInconsistentCoupling,
		Message:   reason,
		Severity:  SeverityError,
		Stage:     stage,
		Parameter: parameter,
		Value:     value,
	}
}

// NewSamplingError creates an error for a distribution that cannot be sampled.
func NewSamplingError(parameter string, value float64, reason string) *EngineError {
	return &EngineError{
		Code:      CodeSamplingError,
		Message:   reason,
		Severity:  SeverityError,
		Parameter: parameter,
		Value:     value,
	}
}

// CodeOf returns the code of the first EngineError in err's chain, or "".
func CodeOf(err error) string {
	var ee *EngineError
	if stderrors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// As is a convenience wrapper returning the first EngineError in err's chain.
func As(err error) (*EngineError, bool) {
	var ee *EngineError
	ok := stderrors.As(err, &ee)
	return ee, ok
}
