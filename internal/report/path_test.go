package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	fallback := filepath.Join(executableDir(), DefaultFileName)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"existing parent is kept", filepath.Join(dir, "out.xml"), filepath.Join(dir, "out.xml")},
		{"empty falls back", "", fallback},
		{"missing parent falls back", filepath.Join(dir, "nope", "out.xml"), fallback},
		{"existing directory falls back", dir, fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePath(tt.in))
		})
	}
}
