package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrAssemblyToolMissing = errors.New("required media tool is not installed")

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type RemoteServiceError struct {
	Code    string
	Message string
}

func (e *RemoteServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote service error %s: %s", e.Code, e.Message)
	}
	return "remote service error: " + e.Message
}

type TimeoutError struct {
	JobID   string
	MaxWait time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s did not reach a terminal state within %s", e.JobID, e.MaxWait)
}

type FatalStageFailure struct {
	Stage string
	Err   error
}

func (e *FatalStageFailure) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *FatalStageFailure) Unwrap() error {
	return e.Err
}
