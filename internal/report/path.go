package report

import (
	"os"
	"path/filepath"
)

// DefaultFileName is the report name used when no usable path is configured.
const DefaultFileName = "Batch_Image_Processor_Report.xml"

// ResolvePath returns path when its parent directory exists and path itself
// is not a directory, and otherwise DefaultFileName inside the directory
// holding the running executable.
func ResolvePath(path string) string {
	if path != "" && !isDir(path) && isDir(filepath.Dir(path)) {
		return path
	}
	return filepath.Join(executableDir(), DefaultFileName)
}

func isDir(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
