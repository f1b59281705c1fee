package sound

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned for play requests rejected before any
	// file or process is touched.
	ErrInvalidRequest = errors.New("invalid request")
)

// NotFoundError is returned when a sound id is not live, or when a sound
// file is missing or empty.
type NotFoundError struct {
	SoundID string
	Path    string
	Reason  string
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.SoundID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// LaunchError is returned when the decoder process could not be started.
type LaunchError struct {
	SoundID string
	Path    string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch decoder for %s: %v", e.SoundID, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ProcessError is returned when signalling a decoder during stop fails,
// typically because it already exited. The sound is removed regardless.
type ProcessError struct {
	SoundID string
	Pid     int
	Op      string
	Err     error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s pid %d for %s: %v", e.Op, e.Pid, e.SoundID, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}
