package mirror

import (
	"fmt"

	"github.com/input-output-hk/crx-mirror/errors"
)

// Stage identifies a step of an iteration.
type Stage string

const (
	StageReset   Stage = "reset"
	StagePrepare Stage = "prepare"
	StageFetch   Stage = "fetch"
	StageUnpack  Stage = "unpack"
	StagePublish Stage = "publish"
	StageCleanup Stage = "cleanup"
	StageDone    Stage = "done"
)

// StageError is returned by RunOnce when an iteration fails.
type StageError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap returns the stage failure.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Code returns the error code of the stage failure.
func (e *StageError) Code() errors.ErrorCode {
	return errors.GetCode(e.Err)
}

// StageOf returns the stage an error was raised in, or "" when err is not a
// StageError.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
