package batch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"batch-image-processor/internal/statistics"
)

// extensionSet builds a lookup of lowercase extensions without the leading dot.
func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}

// matches reports whether name has one of the extensions in set. The file's
// own extension is lowercased before the lookup.
func matches(name string, set map[string]bool) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return ext != "" && set[ext]
}

// discoverFiles lists matching regular files directly inside each directory,
// in directory order and then lexical order. Missing or unreadable
// directories contribute nothing. A file reachable through two configured
// directories is only listed once.
func discoverFiles(dirs, exts []string, log *logrus.Logger, stats *statistics.Statistics) []string {
	set := extensionSet(exts)
	seen := make(map[string]bool)
	var files []string

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				stats.IncrementDirectoriesMissing()
				log.WithField("directory", dir).Warn("Directory does not exist, skipping")
			} else {
				log.WithField("directory", dir).WithError(err).Warn("Cannot read directory, skipping")
			}
			continue
		}
		stats.IncrementDirectoriesScanned()

		for _, entry := range entries {
			if entry.IsDir() || !matches(entry.Name(), set) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			if seen[path] {
				continue
			}
			seen[path] = true
			files = append(files, path)
			stats.IncrementFileType(strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), ".")))
		}
	}

	stats.IncrementFilesFound(len(files))
	return files
}
