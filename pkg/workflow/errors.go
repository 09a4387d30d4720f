package workflow

import (
	"fmt"
	"strings"
)

// PreconditionError indicates a stage's declared input is missing from the
// context. Fatal: the workflow fails without retry.
type PreconditionError struct {
	Stage   string
	Missing []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("stage %q missing required context fields: %s", e.Stage, strings.Join(e.Missing, ", "))
}

// StageExecutionError indicates a stage function returned an error. Fatal for
// the current run: only a structurally successful validation result with
// validity=false drives the retry loop, never a stage error.
type StageExecutionError struct {
	Stage string
	Err   error
}

func (e *StageExecutionError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageExecutionError) Unwrap() error {
	return e.Err
}
