package battle

import (
	"errors"
	"fmt"
)

var (
	// ErrRejectedTransition is returned when an operation is illegal in the current phase.
	ErrRejectedTransition = errors.New("transition rejected")
	// ErrUnknownMove is returned when a move id is not in the catalog.
	ErrUnknownMove = errors.New("unknown move")
)

// RejectionError describes a rejected call. The battle state is unchanged.
type RejectionError struct {
	Op    string
	Phase Phase
	Move  MoveID
	Err   error
}

func (e *RejectionError) Error() string {
	if e.Move != "" {
		return fmt.Sprintf("%s %q in phase %s: %v", e.Op, e.Move, e.Phase, e.Err)
	}
	return fmt.Sprintf("%s in phase %s: %v", e.Op, e.Phase, e.Err)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}
