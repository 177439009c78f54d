package script

import (
	"time"
)

// ErrorType categorizes script errors.
type ErrorType string

const (
	ErrorTypeCompilation ErrorType = "compilation"
	ErrorTypeExecution   ErrorType = "execution"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeMemoryLimit ErrorType = "memory_limit"
	ErrorTypeResult      ErrorType = "result"
)

// Script is a named tengo source.
type Script struct {
	Name    string
	Content string
}

// Output is what a run produced.
type Output struct {
	// Result is the value of the script's "result" variable, or nil.
	Result  interface{}
	Logs    []string
	Metrics ExecutionMetrics
}

// ExecutionMetrics describes one run.
type ExecutionMetrics struct {
	ExecutionTime time.Duration
}

// SecurityLimits bounds what a script may do.
type SecurityLimits struct {
	MaxExecutionTime time.Duration
	// MaxAllocs caps object allocations per run. Negative means unlimited.
	MaxAllocs       int64
	AllowedPackages []string
}

// DefaultSecurityLimits returns safe defaults.
func DefaultSecurityLimits() SecurityLimits {
	return SecurityLimits{
		MaxExecutionTime: 500 * time.Millisecond,
		MaxAllocs:        100_000,
		AllowedPackages:  []string{"fmt", "strings", "math", "rand"},
	}
}

// ScriptError is returned for every failure of a script.
type ScriptError struct {
	Type       ErrorType
	ScriptName string
	Message    string
	Cause      error
}

func (e *ScriptError) Error() string {
	msg := e.ScriptName + ": " + e.Message
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// NewScriptError creates a ScriptError.
func NewScriptError(errorType ErrorType, scriptName, message string, cause error) *ScriptError {
	return &ScriptError{
		Type:       errorType,
		ScriptName: scriptName,
		Message:    message,
		Cause:      cause,
	}
}
