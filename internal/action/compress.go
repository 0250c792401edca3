package action

import (
	"fmt"
	"strconv"
	"strings"

	"batch-image-processor/internal/imagefile"
)

// CompressPNG re-saves PNG files with the strongest lossless compression.
type CompressPNG struct{}

func (CompressPNG) Describe() Descriptor {
	return Descriptor{
		Name:           "compress_png",
		Title:          "Compress PNGs",
		Status:         "Compressing",
		DefaultEnabled: true,
		Visible:        true,
	}
}

func (CompressPNG) Execute(img *imagefile.Handle) (Verdict, error) {
	if !strings.HasSuffix(strings.ToLower(img.Path()), ".png") {
		return Fail(fmt.Sprintf("%s is not a PNG file", img.Name())), nil
	}

	originalSize, err := img.DiskSize()
	if err != nil {
		return Verdict{}, err
	}

	if err := img.EnsureOpen(); err != nil {
		return Verdict{}, err
	}
	if err := img.Save("", imagefile.SaveOptions{Optimize: true}); err != nil {
		return Verdict{}, err
	}

	newSize, err := img.DiskSize()
	if err != nil {
		return Verdict{}, err
	}

	// A larger re-encode is reported the same way as no change.
	diff := originalSize - newSize
	if diff <= 0 {
		return Fail("Compression did not save any memory on disk"), nil
	}

	v := Pass(fmt.Sprintf("Compression saved %s kbs on disk", FormatKilobytes(diff)))
	v.BytesSaved = diff
	return v, nil
}

// FormatKilobytes renders a byte count as kilobytes truncated to hundredths.
// The hundredths are computed as an integer and the decimal point is inserted
// two digits from the right, so values under a tenth render without a leading
// zero (5 hundredths is ".5").
func FormatKilobytes(bytes int64) string {
	raw := strconv.FormatInt(int64(float64(bytes)/1024.0*100), 10)
	split := len(raw) - 2
	if split < 0 {
		split = 0
	}
	return raw[:split] + "." + raw[split:]
}
