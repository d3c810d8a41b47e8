package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoTextDetected is returned when OCR finds nothing usable in the image.
var ErrNoTextDetected = errors.New("no text detected in image")

// ProcessingError wraps a failure with the stage it happened in.
type ProcessingError struct {
	Stage ProcessingStage
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

func stageError(stage ProcessingStage, err error) *ProcessingError {
	return &ProcessingError{Stage: stage, Err: err}
}
