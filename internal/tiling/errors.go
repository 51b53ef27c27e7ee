package tiling

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a non-positive dimension or a zero denominator.
	ErrInvalidInput = errors.New("invalid tiling input")
	// ErrUnreachable reports that no admissible tile exists for the target.
	ErrUnreachable = errors.New("unreachable tiling configuration")
	// ErrInvariant reports a descriptor that fails Verify.
	ErrInvariant = errors.New("tiling invariant violated")
)

// Error carries the pipeline stage that failed. It unwraps to one of the
// sentinel errors above.
type Error struct {
	Stage string
	Msg   string
	kind  error
}

func (e *Error) Error() string {
	return e.Stage + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

func invalidf(stage, format string, args ...any) error {
	return &Error{Stage: stage, Msg: fmt.Sprintf(format, args...), kind: ErrInvalidInput}
}

func unreachablef(stage, format string, args ...any) error {
	return &Error{Stage: stage, Msg: fmt.Sprintf(format, args...), kind: ErrUnreachable}
}

func invariantf(stage, format string, args ...any) error {
	return &Error{Stage: stage, Msg: fmt.Sprintf(format, args...), kind: ErrInvariant}
}
