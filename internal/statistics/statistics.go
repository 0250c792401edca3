package statistics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics contains all statistics for a batch run.
type Statistics struct {
	TotalFilesFound int64
	FilesProcessed  int64
	FilesPassed     int64
	FilesFailed     int64
	FilesWithErrors int64

	ActionsRun    int64
	ActionsPassed int64
	ActionsFailed int64

	BytesSaved int64

	DirectoriesScanned int64
	DirectoriesMissing int64

	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	FilesPerSecond float64

	Errors []StatError

	mutex sync.RWMutex

	ActionStats   map[string]*ActionTally
	FileTypeStats map[string]int64
}

// StatError represents an error that occurred during processing.
type StatError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// ActionTally counts the verdicts of a single action.
type ActionTally struct {
	Passed int64
	Failed int64
}

// NewStatistics returns a new Statistics instance.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:     time.Now(),
		ActionStats:   make(map[string]*ActionTally),
		FileTypeStats: make(map[string]int64),
		Errors:        make([]StatError, 0),
	}
}

// IncrementFilesFound increases the count of found files by n.
func (s *Statistics) IncrementFilesFound(n int) {
	atomic.AddInt64(&s.TotalFilesFound, int64(n))
}

// RecordFile records the outcome of one processed file.
func (s *Statistics) RecordFile(passed bool) {
	atomic.AddInt64(&s.FilesProcessed, 1)
	if passed {
		atomic.AddInt64(&s.FilesPassed, 1)
	} else {
		atomic.AddInt64(&s.FilesFailed, 1)
	}
}

// IncrementFilesWithErrors increases the count of files that errored by 1.
func (s *Statistics) IncrementFilesWithErrors() {
	atomic.AddInt64(&s.FilesWithErrors, 1)
}

// RecordAction records one verdict for the named action.
func (s *Statistics) RecordAction(name string, passed bool) {
	atomic.AddInt64(&s.ActionsRun, 1)
	if passed {
		atomic.AddInt64(&s.ActionsPassed, 1)
	} else {
		atomic.AddInt64(&s.ActionsFailed, 1)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	t, ok := s.ActionStats[name]
	if !ok {
		t = &ActionTally{}
		s.ActionStats[name] = t
	}
	if passed {
		t.Passed++
	} else {
		t.Failed++
	}
}

// IncrementDirectoriesScanned increases the count of scanned directories by 1.
func (s *Statistics) IncrementDirectoriesScanned() {
	atomic.AddInt64(&s.DirectoriesScanned, 1)
}

// IncrementDirectoriesMissing increases the count of configured directories that did not exist.
func (s *Statistics) IncrementDirectoriesMissing() {
	atomic.AddInt64(&s.DirectoriesMissing, 1)
}

// IncrementFileType increases the count for a specific file extension by 1.
func (s *Statistics) IncrementFileType(fileType string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.FileTypeStats[fileType]++
}

// AddBytesSaved adds to the total bytes saved by compression.
func (s *Statistics) AddBytesSaved(bytes int64) {
	atomic.AddInt64(&s.BytesSaved, bytes)
}

// Finalize calculates duration and throughput.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	processed := atomic.LoadInt64(&s.FilesProcessed)
	if s.Duration.Seconds() > 0 {
		s.FilesPerSecond = float64(processed) / s.Duration.Seconds()
	}
}

// AddError records an error that occurred during processing.
func (s *Statistics) AddError(filePath, operation, errorMsg string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Errors = append(s.Errors, StatError{
		FilePath:  filePath,
		Operation: operation,
		Error:     errorMsg,
		Timestamp: time.Now(),
	})
}

// GetSummary returns a formatted summary of all statistics.
func (s *Statistics) GetSummary() string {
	s.mutex.RLock()
	duration := s.Duration
	fps := s.FilesPerSecond
	s.mutex.RUnlock()

	return fmt.Sprintf(`Batch Image Processor Statistics Summary:

Files:
		Total Found: %d
		Processed: %d
		Passed: %d
		Failed: %d
		Errors: %d

Actions:
		Run: %d
		Passed: %d
		Failed: %d

Performance:
		Duration: %v
		Files/Second: %.2f
		Bytes Saved: %s

Directories:
		Scanned: %d
		Missing: %d`,
		atomic.LoadInt64(&s.TotalFilesFound),
		atomic.LoadInt64(&s.FilesProcessed),
		atomic.LoadInt64(&s.FilesPassed),
		atomic.LoadInt64(&s.FilesFailed),
		atomic.LoadInt64(&s.FilesWithErrors),
		atomic.LoadInt64(&s.ActionsRun),
		atomic.LoadInt64(&s.ActionsPassed),
		atomic.LoadInt64(&s.ActionsFailed),
		duration,
		fps,
		formatBytes(atomic.LoadInt64(&s.BytesSaved)),
		atomic.LoadInt64(&s.DirectoriesScanned),
		atomic.LoadInt64(&s.DirectoriesMissing))
}

// GetActionBreakdown returns a per-action pass/fail breakdown sorted by name.
func (s *Statistics) GetActionBreakdown() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.ActionStats) == 0 {
		return "No actions were run"
	}

	names := make([]string, 0, len(s.ActionStats))
	for name := range s.ActionStats {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Action Breakdown:\n")
	for _, name := range names {
		t := s.ActionStats[name]
		fmt.Fprintf(&b, "  %s: %d passed, %d failed\n", name, t.Passed, t.Failed)
	}
	return b.String()
}

// GetErrorSummary returns a summary of errors that occurred during processing.
func (s *Statistics) GetErrorSummary() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if len(s.Errors) == 0 {
		return "No errors occurred during processing"
	}

	result := fmt.Sprintf("Errors (%d total):\n", len(s.Errors))
	for i, err := range s.Errors {
		if i >= 10 {
			result += fmt.Sprintf("  ... and %d more errors\n", len(s.Errors)-10)
			break
		}
		result += fmt.Sprintf("  [%s] %s: %s - %s\n",
			err.Timestamp.Format("15:04:05"),
			err.Operation,
			err.FilePath,
			err.Error)
	}
	return result
}

// Snapshot is a point-in-time copy of the counters, suitable for JSON.
type Snapshot struct {
	TotalFilesFound int64   `json:"total_files_found"`
	FilesProcessed  int64   `json:"files_processed"`
	FilesPassed     int64   `json:"files_passed"`
	FilesFailed     int64   `json:"files_failed"`
	FilesWithErrors int64   `json:"files_with_errors"`
	ActionsRun      int64   `json:"actions_run"`
	BytesSaved      int64   `json:"bytes_saved"`
	DurationSeconds float64 `json:"duration_seconds"`
	FilesPerSecond  float64 `json:"files_per_second"`
}

// Snapshot returns the current counters.
func (s *Statistics) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return Snapshot{
		TotalFilesFound: atomic.LoadInt64(&s.TotalFilesFound),
		FilesProcessed:  atomic.LoadInt64(&s.FilesProcessed),
		FilesPassed:     atomic.LoadInt64(&s.FilesPassed),
		FilesFailed:     atomic.LoadInt64(&s.FilesFailed),
		FilesWithErrors: atomic.LoadInt64(&s.FilesWithErrors),
		ActionsRun:      atomic.LoadInt64(&s.ActionsRun),
		BytesSaved:      atomic.LoadInt64(&s.BytesSaved),
		DurationSeconds: s.Duration.Seconds(),
		FilesPerSecond:  s.FilesPerSecond,
	}
}

// formatBytes returns a human-readable string for a byte count.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// GetFilesProcessed returns the number of files processed.
func (s *Statistics) GetFilesProcessed() int64 {
	return atomic.LoadInt64(&s.FilesProcessed)
}

// GetFilesFailed returns the number of files with at least one failing action.
func (s *Statistics) GetFilesFailed() int64 {
	return atomic.LoadInt64(&s.FilesFailed)
}

// GetDuration returns the total duration of the run.
func (s *Statistics) GetDuration() time.Duration {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Duration
}
