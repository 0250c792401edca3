package imagefile

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// SaveOptions controls how pixel data is written back to disk.
type SaveOptions struct {
	// Optimize selects the smallest lossless encoding the format supports.
	Optimize bool
}

// Handle is a lazy wrapper around one image file on disk.
// A Handle is owned by a single goroutine for the duration of one file's processing.
type Handle struct {
	path     string
	img      image.Image
	loaded   bool
	writable bool
}

// New returns a Handle for path. The file must exist.
func New(path string) (*Handle, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not an image file", path)
	}

	h := &Handle{path: path}
	h.RefreshWritability()
	return h, nil
}

// Path returns the path the handle was built for.
func (h *Handle) Path() string {
	return h.path
}

// Name returns the base name of the file.
func (h *Handle) Name() string {
	return filepath.Base(h.path)
}

// IsLoaded reports whether pixel data has been decoded.
func (h *Handle) IsLoaded() bool {
	return h.loaded
}

// IsWritable reports the writability recorded by the last RefreshWritability call.
func (h *Handle) IsWritable() bool {
	return h.writable
}

// Image returns the decoded pixel data, or nil before Open.
func (h *Handle) Image() image.Image {
	return h.img
}

// Mode returns the channel layout of the loaded image.
func (h *Handle) Mode() Mode {
	if !h.loaded {
		return ModeUnknown
	}
	return ModeOf(h.img)
}

// Open decodes the file. Calling it again reloads the pixel data from disk.
func (h *Handle) Open() error {
	img, err := decodeFile(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, h.path)
		}
		return &DecodeError{Path: h.path, Err: err}
	}
	h.img = img
	h.loaded = true
	return nil
}

// EnsureOpen opens the file unless pixel data is already loaded.
func (h *Handle) EnsureOpen() error {
	if h.loaded {
		return nil
	}
	return h.Open()
}

// RefreshWritability recomputes the writable flag from the owner write permission bit.
func (h *Handle) RefreshWritability() bool {
	h.writable = false
	info, err := os.Stat(h.path)
	if err == nil && info.Mode().Perm()&0o200 != 0 {
		h.writable = true
	}
	return h.writable
}

// DiskSize returns the current on-disk size of the file in bytes.
func (h *Handle) DiskSize() (int64, error) {
	info, err := os.Stat(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrFileNotFound, h.path)
		}
		return 0, fmt.Errorf("stat %s: %w", h.path, err)
	}
	return info.Size(), nil
}

// Save writes the pixel data to dest, or back to the handle's own path when dest is empty.
// It is a no-op when nothing is loaded or the source file is not writable.
func (h *Handle) Save(dest string, opts SaveOptions) error {
	if !h.loaded || !h.RefreshWritability() {
		return nil
	}
	if dest == "" {
		dest = h.path
	}

	var encOpts []imaging.EncodeOption
	if opts.Optimize {
		encOpts = append(encOpts, imaging.PNGCompressionLevel(png.BestCompression))
	}
	if err := imaging.Save(h.img, dest, encOpts...); err != nil {
		return fmt.Errorf("save %s: %w", dest, err)
	}
	return nil
}

// Channels splits the loaded image into per-channel arrays.
func (h *Handle) Channels() (*Split, error) {
	if err := h.EnsureOpen(); err != nil {
		return nil, err
	}
	s, err := SplitChannels(h.img)
	if err != nil {
		var modeErr *UnhandledModeError
		if errors.As(err, &modeErr) {
			modeErr.Path = h.path
		}
		return nil, err
	}
	return s, nil
}
