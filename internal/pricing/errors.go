package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is wrapped by every input validation failure.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParamError describes which parameter was rejected and why.
type ParamError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s %s (got %g)", ErrInvalidParameter, e.Name, e.Reason, e.Value)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

func invalid(name string, value float64, reason string) error {
	return &ParamError{Name: name, Value: value, Reason: reason}
}
