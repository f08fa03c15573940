package tts

import (
	"errors"
	"fmt"
)

// Sentinel errors for the synthesis core.
var (
	// ErrNoEngineAvailable means no registered engine matches the
	// requested mode. Surfaced to the caller, never retried.
	ErrNoEngineAvailable = errors.New("no engine available for requested mode")

	// ErrEngineNotFound means the named engine is not registered.
	ErrEngineNotFound = errors.New("engine not found")

	// ErrProfileNotFound means the named voice profile does not exist.
	ErrProfileNotFound = errors.New("voice profile not found")

	// ErrUnsupportedMode means an engine was invoked in a mode it does
	// not declare. This indicates a dispatch bug, not an engine failure.
	ErrUnsupportedMode = errors.New("engine does not support requested mode")

	// ErrNotLoaded means synthesis was attempted on an engine that is
	// not in the loaded state.
	ErrNotLoaded = errors.New("engine is not loaded")

	// ErrEmptyText means there is nothing to synthesize.
	ErrEmptyText = errors.New("empty text")
)

// EngineError wraps a failure of one specific synthesis call. The
// Manager retries exactly once against the fallback engine when it
// sees this error type.
type EngineError struct {
	Engine string
	Err    error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Engine, e.Err)
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error { return e.Err }

// LoadError wraps an engine initialization failure. Registration
// converts it into a Failed descriptor; it is never fatal to the registry.
type LoadError struct {
	Engine string
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("engine %s failed to load: %v", e.Engine, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// ParseError reports an invalid configuration or profile value.
type ParseError struct {
	Field string
	Value string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}
