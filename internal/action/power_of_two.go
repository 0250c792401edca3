package action

import (
	"fmt"
	"strings"

	"batch-image-processor/internal/imagefile"
)

// PowerOfTwo checks that both image dimensions are powers of two.
type PowerOfTwo struct{}

func (PowerOfTwo) Describe() Descriptor {
	return Descriptor{
		Name:    "check_power_of_2",
		Title:   "Check Power of 2",
		Status:  "Checking Power of 2 on",
		Visible: true,
	}
}

func (PowerOfTwo) Execute(img *imagefile.Handle) (Verdict, error) {
	if err := img.EnsureOpen(); err != nil {
		return Verdict{}, err
	}

	b := img.Image().Bounds()
	w, h := b.Dx(), b.Dy()

	var failed []string
	if !IsPowerOfTwo(w) {
		failed = append(failed, "width")
	}
	if !IsPowerOfTwo(h) {
		failed = append(failed, "height")
	}

	if len(failed) == 0 {
		return Pass(fmt.Sprintf("Width:%d and Height:%d are both a proper power of 2", w, h)), nil
	}
	return Fail(fmt.Sprintf("Width:%d or Height:%d is NOT a proper power of 2 (failed: %s)",
		w, h, strings.Join(failed, " and "))), nil
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n != 0 && n&(n-1) == 0
}
