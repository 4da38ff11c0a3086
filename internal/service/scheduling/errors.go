package scheduling

import "errors"

// ErrPastDate is returned when a booking targets an hour that already passed.
var ErrPastDate = errors.New("date is in the past")

// ValidationError marks a malformed request payload.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

func validationError(msg string) error {
	return NewValidationError(msg)
}

// InvalidArgumentError marks a structurally valid request asking for an
// impossible thing, such as month 13.
type InvalidArgumentError struct {
	msg string
}

func (e *InvalidArgumentError) Error() string {
	return e.msg
}

// NewInvalidArgument builds an InvalidArgumentError with the given message.
func NewInvalidArgument(msg string) error {
	return &InvalidArgumentError{msg: msg}
}

func invalidArgument(msg string) error {
	return NewInvalidArgument(msg)
}
