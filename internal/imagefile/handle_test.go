package imagefile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestNew_Directory(t *testing.T) {
	_, err := New(t.TempDir())
	require.Error(t, err)
}

func TestOpen_LoadsPixels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	writePNG(t, path, image.NewNRGBA(image.Rect(0, 0, 4, 2)))

	h, err := New(path)
	require.NoError(t, err)
	assert.False(t, h.IsLoaded())
	assert.Nil(t, h.Image())

	require.NoError(t, h.Open())
	assert.True(t, h.IsLoaded())
	assert.Equal(t, 4, h.Image().Bounds().Dx())
	assert.Equal(t, 2, h.Image().Bounds().Dy())

	// a second open reloads without error
	require.NoError(t, h.Open())
	assert.True(t, h.IsLoaded())
}

func TestOpen_TGA(t *testing.T) {
	var buf bytes.Buffer
	header := make([]byte, 18)
	header[2] = 2 // uncompressed true-color
	binary.LittleEndian.PutUint16(header[12:], 2)
	binary.LittleEndian.PutUint16(header[14:], 1)
	header[16] = 24
	header[17] = 0x20 // top-left origin
	buf.Write(header)
	buf.Write([]byte{0, 0, 255, 255, 0, 0}) // BGR: red, blue

	path := filepath.Join(t.TempDir(), "Brick.TGA")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	h, err := New(path)
	require.NoError(t, err)
	require.NoError(t, h.Open())
	assert.Equal(t, 2, h.Image().Bounds().Dx())
	assert.Equal(t, 1, h.Image().Bounds().Dy())

	split, err := h.Channels()
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 0}, split.Red)
	assert.Equal(t, []uint8{0, 255}, split.Blue)
}

func TestOpen_DecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a png"), 0o644))

	h, err := New(path)
	require.NoError(t, err)

	err = h.Open()
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, path, decErr.Path)
	assert.False(t, h.IsLoaded())
}

func TestOpen_VanishedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.png")
	writePNG(t, path, image.NewNRGBA(image.Rect(0, 0, 1, 1)))

	h, err := New(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	err = h.Open()
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestSave_NoopWhenNotLoaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	writePNG(t, path, image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	h, err := New(path)
	require.NoError(t, err)
	require.NoError(t, h.Save("", SaveOptions{Optimize: true}))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSave_NoopWhenReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	writePNG(t, path, image.NewNRGBA(image.Rect(0, 0, 2, 2)))

	h, err := New(path)
	require.NoError(t, err)
	require.NoError(t, h.Open())
	require.NoError(t, os.Chmod(path, 0o444))
	t.Cleanup(func() { _ = os.Chmod(path, 0o644) })

	require.NoError(t, h.Save("", SaveOptions{}))
	assert.False(t, h.IsWritable())
}

func TestRefreshWritability_TracksPermissionBits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tex.png")
	writePNG(t, path, image.NewNRGBA(image.Rect(0, 0, 1, 1)))

	h, err := New(path)
	require.NoError(t, err)
	assert.True(t, h.IsWritable())

	require.NoError(t, os.Chmod(path, 0o444))
	t.Cleanup(func() { _ = os.Chmod(path, 0o644) })
	assert.True(t, h.IsWritable(), "flag is not recomputed until refreshed")
	assert.False(t, h.RefreshWritability())
}

func TestSave_ToDestination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tex.png")
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})
	writePNG(t, path, img)

	h, err := New(path)
	require.NoError(t, err)
	require.NoError(t, h.Open())

	dest := filepath.Join(dir, "copy.png")
	require.NoError(t, h.Save(dest, SaveOptions{Optimize: true}))
	assert.True(t, h.IsLoaded())

	copied, err := New(dest)
	require.NoError(t, err)
	require.NoError(t, copied.Open())
	r, _, _, _ := copied.Image().At(1, 1).RGBA()
	assert.Equal(t, uint32(200), r>>8)
}

func TestChannels_Modes(t *testing.T) {
	dir := t.TempDir()

	rgba := filepath.Join(dir, "rgba.png")
	nrgba := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	nrgba.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	nrgba.Set(1, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	writePNG(t, rgba, nrgba)

	h, err := New(rgba)
	require.NoError(t, err)
	split, err := h.Channels()
	require.NoError(t, err)
	assert.Equal(t, 2, split.Len())
	assert.Equal(t, []uint8{10, 255}, split.Red)
	assert.Equal(t, []uint8{20, 0}, split.Green)
	assert.NotNil(t, split.Alpha)

	gray := filepath.Join(dir, "gray.png")
	writePNG(t, gray, image.NewGray(image.Rect(0, 0, 2, 2)))
	h, err = New(gray)
	require.NoError(t, err)
	_, err = h.Channels()
	var modeErr *UnhandledModeError
	require.ErrorAs(t, err, &modeErr)
	assert.Equal(t, ModeGray, modeErr.Mode)
	assert.Equal(t, gray, modeErr.Path)
}

func TestModeOf(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want Mode
	}{
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 1, 1), image.YCbCrSubsampleRatio444), ModeRGB},
		{"nrgba", image.NewNRGBA(image.Rect(0, 0, 1, 1)), ModeRGBA},
		{"rgba", image.NewRGBA(image.Rect(0, 0, 1, 1)), ModeRGBA},
		{"gray", image.NewGray(image.Rect(0, 0, 1, 1)), ModeGray},
		{"paletted", image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Black}), ModePaletted},
		{"cmyk", image.NewCMYK(image.Rect(0, 0, 1, 1)), ModeCMYK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModeOf(tt.img))
		})
	}
}
