package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTitle indicates a derived title collided with an existing row.
	ErrDuplicateTitle = errors.New("title already exists")
)

// NotFoundError reports a missing ledger record, carrying the identifying value.
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Ref)
}

// NewNotFound constructs a NotFoundError for the given record kind and reference.
func NewNotFound(kind, ref string) *NotFoundError {
	return &NotFoundError{Kind: kind, Ref: ref}
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InvalidStateError reports a gated transition attempted against the wrong
// current status. The message names both the required and the actual status.
type InvalidStateError struct {
	Op       string
	Required string
	Actual   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s requires status %s, current status is %s", e.Op, e.Required, e.Actual)
}

// NewInvalidState constructs an InvalidStateError.
func NewInvalidState(op, required, actual string) *InvalidStateError {
	return &InvalidStateError{Op: op, Required: required, Actual: actual}
}

// IsInvalidState reports whether err wraps an InvalidStateError.
func IsInvalidState(err error) bool {
	var is *InvalidStateError
	return errors.As(err, &is)
}

// PreconditionError reports an external completeness predicate that was not
// satisfied. Kept distinct from InvalidStateError so callers can direct the
// user to the approval subsystem instead of the lifecycle itself.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// NewPrecondition constructs a PreconditionError.
func NewPrecondition(reason string) *PreconditionError {
	return &PreconditionError{Reason: reason}
}

// IsPrecondition reports whether err wraps a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// MalformedTitleError reports a stored title that fails the strict suffix
// pattern. This is a data-integrity guard, never recovered automatically.
type MalformedTitleError struct {
	Title string
}

func (e *MalformedTitleError) Error() string {
	return fmt.Sprintf("title '%s' does not match the expected format", e.Title)
}

// NewMalformedTitle constructs a MalformedTitleError.
func NewMalformedTitle(title string) *MalformedTitleError {
	return &MalformedTitleError{Title: title}
}

// IsMalformedTitle reports whether err wraps a MalformedTitleError.
func IsMalformedTitle(err error) bool {
	var mt *MalformedTitleError
	return errors.As(err, &mt)
}
