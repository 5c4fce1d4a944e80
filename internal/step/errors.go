package step

import (
	"errors"
	"fmt"
)

// ErrOutOfOrder is returned when a lifecycle stage is called before its
// predecessor completed.
var ErrOutOfOrder = errors.New("step: lifecycle stage out of order")

// Error is the structured failure raised by steps. Sample is set when a
// specific sample caused the failure.
type Error struct {
	Step   string
	Sample string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Sample != "" {
		return fmt.Sprintf("%s: %s (sample %s)", e.Step, e.Msg, e.Sample)
	}
	return fmt.Sprintf("%s: %s", e.Step, e.Msg)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Because attaches a cause to the error.
func (e *Error) Because(err error) *Error {
	e.Err = err
	return e
}

// Errorf builds a step error without a sample.
func Errorf(step, format string, args ...any) *Error {
	return &Error{Step: step, Msg: fmt.Sprintf(format, args...)}
}

// SampleErrorf builds a step error naming the offending sample.
func SampleErrorf(step, sample, format string, args ...any) *Error {
	return &Error{Step: step, Sample: sample, Msg: fmt.Sprintf(format, args...)}
}
