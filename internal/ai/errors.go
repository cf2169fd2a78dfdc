package ai

import (
	"errors"
	"fmt"
)

// CapabilityError reports that a model capability itself failed: transport,
// quota, timeout or an empty answer.
type CapabilityError struct {
	Capability string
	Provider   string
	Cause      error
}

func (e *CapabilityError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s capability failed: %v", e.Capability, e.Cause)
	}
	return fmt.Sprintf("%s capability (%s) failed: %v", e.Capability, e.Provider, e.Cause)
}

func (e *CapabilityError) Unwrap() error {
	return e.Cause
}

// Failure wraps err into a CapabilityError unless it already carries one.
func Failure(capability, provider string, err error) error {
	if err == nil {
		return nil
	}

	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return err
	}

	return &CapabilityError{Capability: capability, Provider: provider, Cause: err}
}

// UnsupportedInputError is returned when an operation receives empty or
// whitespace-only text it cannot work without.
type UnsupportedInputError struct {
	Field string
}

func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("%s text is empty", e.Field)
}
