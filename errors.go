package tilebuilder

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTileGrid      = errors.New("invalid tile grid")
	ErrInvalidTileIndex     = errors.New("invalid tile index")
	ErrNonIntegerScaledSize = errors.New("scaled size is not an integer")
	ErrInvalidScale         = errors.New("invalid scale")
	ErrUnknownOperationType = errors.New("unknown operation type")
	ErrOutputAlreadyExists  = errors.New("output file already exists")
)

// OperationError reports the operation of a task that failed.
type OperationError struct {
	Index int    // position in the task's operation list
	Kind  string // operation type tag
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Kind, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// TaskError reports which task failed.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("failed to finish task %s: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
