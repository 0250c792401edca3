package imagefile

import (
	"image"
	"image/color"
)

// Mode describes the channel layout of decoded pixel data.
type Mode string

const (
	ModeRGB      Mode = "RGB"
	ModeRGBA     Mode = "RGBA"
	ModeGray     Mode = "L"
	ModePaletted Mode = "P"
	ModeCMYK     Mode = "CMYK"
	ModeAlpha    Mode = "A"
	ModeUnknown  Mode = "unknown"
)

// Channels reports how many color channels the mode carries, or 0 when unknown.
func (m Mode) Channels() int {
	switch m {
	case ModeRGB:
		return 3
	case ModeRGBA, ModeCMYK:
		return 4
	case ModeGray, ModePaletted, ModeAlpha:
		return 1
	default:
		return 0
	}
}

// ModeOf maps a decoded image to its channel layout.
func ModeOf(img image.Image) Mode {
	switch img.(type) {
	case *image.YCbCr:
		return ModeRGB
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.NYCbCrA:
		return ModeRGBA
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.Paletted:
		return ModePaletted
	case *image.CMYK:
		return ModeCMYK
	case *image.Alpha, *image.Alpha16:
		return ModeAlpha
	default:
		return ModeUnknown
	}
}

// Split holds 8-bit per-channel pixel arrays in row-major order.
// Alpha is nil for three channel images.
type Split struct {
	Mode  Mode
	Red   []uint8
	Green []uint8
	Blue  []uint8
	Alpha []uint8
}

// Len returns the number of pixels in each channel.
func (s *Split) Len() int {
	return len(s.Red)
}

// SplitChannels separates an RGB or RGBA image into per-channel arrays.
func SplitChannels(img image.Image) (*Split, error) {
	mode := ModeOf(img)
	if mode != ModeRGB && mode != ModeRGBA {
		return nil, &UnhandledModeError{Mode: mode}
	}

	b := img.Bounds()
	n := b.Dx() * b.Dy()
	s := &Split{
		Mode:  mode,
		Red:   make([]uint8, 0, n),
		Green: make([]uint8, 0, n),
		Blue:  make([]uint8, 0, n),
	}
	if mode == ModeRGBA {
		s.Alpha = make([]uint8, 0, n)
	}

	switch src := img.(type) {
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				s.Red = append(s.Red, row[i])
				s.Green = append(s.Green, row[i+1])
				s.Blue = append(s.Blue, row[i+2])
				s.Alpha = append(s.Alpha, row[i+3])
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				s.Red = append(s.Red, c.R)
				s.Green = append(s.Green, c.G)
				s.Blue = append(s.Blue, c.B)
				if s.Alpha != nil {
					s.Alpha = append(s.Alpha, c.A)
				}
			}
		}
	}
	return s, nil
}
