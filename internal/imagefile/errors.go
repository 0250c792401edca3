package imagefile

import (
	"errors"
	"fmt"
)

// ErrFileNotFound is returned when a handle is built for, or opens, a path that does not exist.
var ErrFileNotFound = errors.New("image file not found")

// DecodeError is returned when the file exists but its pixel data cannot be decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnhandledModeError is returned when an operation needs a channel layout the image does not have.
type UnhandledModeError struct {
	Path string
	Mode Mode
}

func (e *UnhandledModeError) Error() string {
	return fmt.Sprintf("unhandled image mode %s for %s", e.Mode, e.Path)
}
