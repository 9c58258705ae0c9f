package chart

import (
	"errors"
	"fmt"
)

// ErrRejected matches every error returned for a mutation that would break
// a chart invariant. The chart is unchanged when it is returned.
var ErrRejected = errors.New("rejected")

var (
	ErrNotFound            = errors.New("not found")
	ErrEmptyName           = errors.New("name must not be empty")
	ErrDuplicateName       = errors.New("name already in use")
	ErrDuplicateTransition = errors.New("transition already exists")
	ErrHasChildren         = errors.New("state has children and must stay composite")
	ErrNotComposite        = errors.New("state is not composite")
	ErrNotChild            = errors.New("state is not a direct child")
	ErrRootState           = errors.New("operation not allowed on the root state")
	ErrTimeLock            = errors.New("invalid time lock")
	ErrUnknownKind         = errors.New("unknown state kind")
)

// RejectedError reports which invariant a mutation violated.
type RejectedError struct {
	Op  string
	Err error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// Is makes every RejectedError match ErrRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

func reject(op string, err error) error {
	return &RejectedError{Op: op, Err: err}
}
