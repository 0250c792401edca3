// Package action defines the per-image rules the batch engine applies and the
// registry that selects which of them run.
package action

import (
	"batch-image-processor/internal/imagefile"
)

// Descriptor is the immutable identity of an action.
type Descriptor struct {
	// Name is the unique key used for registry lookups and allow-lists.
	Name string `json:"name"`
	// Title is the label shown to users.
	Title string `json:"title"`
	// Status is the verb phrase shown while the action runs on a file.
	Status string `json:"status"`
	// DefaultEnabled selects the action when no explicit allow-list is given.
	DefaultEnabled bool `json:"default_enabled"`
	// Visible controls whether a presentation layer offers the action as a toggle.
	Visible bool `json:"visible"`
}

// Verdict is the outcome of running one action against one image.
type Verdict struct {
	Passed  bool
	Message string
	// BytesSaved is the on-disk reduction an action achieved, if any.
	BytesSaved int64
}

// Pass returns a passing verdict.
func Pass(message string) Verdict {
	return Verdict{Passed: true, Message: message}
}

// Fail returns a failing verdict.
func Fail(message string) Verdict {
	return Verdict{Passed: false, Message: message}
}

// Action is a stateless rule applied to one image at a time.
//
// Execute reports ordinary negative outcomes as a failing Verdict. A non-nil
// error means the file itself could not be processed (it vanished, could not be
// decoded, or could not be written) and no verdict is available.
type Action interface {
	Describe() Descriptor
	Execute(img *imagefile.Handle) (Verdict, error)
}
