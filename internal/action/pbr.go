package action

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"batch-image-processor/internal/imagefile"
)

// MetalRoughnessAOSuffix marks packed metal/roughness/ambient-occlusion textures.
const MetalRoughnessAOSuffix = "_mra.png"

// VerifyPBR validates texture channels against PBR authoring rules.
// Only the metal mask (red channel of _mra textures) is checked.
type VerifyPBR struct{}

func (VerifyPBR) Describe() Descriptor {
	return Descriptor{
		Name:    "verify_pbr_values",
		Title:   "Verify PBR Values",
		Status:  "Verifying PBR Values on",
		Visible: true,
	}
}

func (VerifyPBR) Execute(img *imagefile.Handle) (Verdict, error) {
	channels, err := img.Channels()
	if err != nil {
		var modeErr *imagefile.UnhandledModeError
		if errors.As(err, &modeErr) {
			return Fail(fmt.Sprintf("Unhandled image mode %s, PBR validation requires RGB or RGBA", modeErr.Mode)), nil
		}
		return Verdict{}, err
	}

	if strings.HasSuffix(strings.ToLower(img.Path()), MetalRoughnessAOSuffix) {
		if v, ok := checkMetalMask(channels.Red); !ok {
			return v, nil
		}
	}

	return Pass("Passed all PBR validation tests"), nil
}

// checkMetalMask requires every metal texel to be pure black or pure white.
func checkMetalMask(red []uint8) (Verdict, bool) {
	bad := 0
	for _, v := range red {
		if v > 0 && v < 255 {
			bad++
		}
	}
	if bad == 0 || len(red) == 0 {
		return Verdict{}, true
	}

	perc := fmt.Sprintf("%d", int(math.Floor(float64(bad)/float64(len(red))*100)))
	if perc == "0" {
		perc = "Less than " + perc
	}
	return Fail(fmt.Sprintf("%s%% of the pixels in the red channel are not valid METAL values", perc)), false
}
