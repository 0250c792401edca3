package action

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"batch-image-processor/internal/imagefile"
)

// identifyingFields are the EXIF tags that leak authoring details into shipped assets.
var identifyingFields = []exif.FieldName{
	exif.Make,
	exif.Model,
	exif.Software,
	exif.DateTime,
	exif.Artist,
	exif.Copyright,
}

// StrippedMetadata fails JPEG files that still carry identifying EXIF tags.
type StrippedMetadata struct{}

func (StrippedMetadata) Describe() Descriptor {
	return Descriptor{
		Name:    "check_stripped_metadata",
		Title:   "Check Stripped Metadata",
		Status:  "Checking metadata on",
		Visible: true,
	}
}

func (StrippedMetadata) Execute(img *imagefile.Handle) (Verdict, error) {
	ext := strings.ToLower(filepath.Ext(img.Path()))
	if ext != ".jpg" && ext != ".jpeg" {
		return Pass(fmt.Sprintf("%s has no EXIF container", img.Name())), nil
	}

	f, err := os.Open(img.Path())
	if err != nil {
		return Verdict{}, fmt.Errorf("open %s: %w", img.Path(), err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return Pass("No EXIF metadata found"), nil
	}

	var found []string
	for _, name := range identifyingFields {
		if _, getErr := x.Get(name); getErr == nil {
			found = append(found, string(name))
		}
	}
	if len(found) == 0 {
		return Pass("EXIF block carries no identifying fields"), nil
	}
	return Fail(fmt.Sprintf("EXIF metadata found: %s", strings.Join(found, ", "))), nil
}
