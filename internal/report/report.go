// Package report accumulates per-file action verdicts for a batch run and
// serializes them as an indented XML document.
package report

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one action verdict recorded for a file.
type Entry struct {
	Action  string
	Passed  bool
	Message string
}

// Failure is a failing verdict, recorded separately from the full results.
type Failure struct {
	Action  string
	Message string
}

// Report holds the results and failures of one batch run keyed by file path.
// It is safe for concurrent use; entries for one file added through AddAll are
// appended atomically.
type Report struct {
	mu sync.RWMutex

	runID     string
	startTime time.Time
	endTime   time.Time
	completed bool
	persist   bool

	results  map[string][]Entry
	failures map[string][]Failure
	order    []string
}

// New returns an empty report with persistence enabled.
func New() *Report {
	return &Report{
		runID:    uuid.NewString(),
		persist:  true,
		results:  make(map[string][]Entry),
		failures: make(map[string][]Failure),
	}
}

// Clear drops every recorded entry and resets the run metadata for a new run.
func (r *Report) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runID = uuid.NewString()
	r.startTime = time.Time{}
	r.endTime = time.Time{}
	r.completed = false
	r.results = make(map[string][]Entry)
	r.failures = make(map[string][]Failure)
	r.order = nil
}

// SetPersist enables or disables writing the report in Save.
func (r *Report) SetPersist(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persist = enabled
}

// Persist reports whether Save writes to disk.
func (r *Report) Persist() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.persist
}

// Begin records the run start time.
func (r *Report) Begin(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startTime = t
}

// Finish records the run end time and whether the run processed every file.
func (r *Report) Finish(t time.Time, completed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endTime = t
	r.completed = completed
}

// RunID returns the identifier of the current run.
func (r *Report) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runID
}

// StartTime returns the recorded start time.
func (r *Report) StartTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.startTime
}

// EndTime returns the recorded end time.
func (r *Report) EndTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.endTime
}

// Completed reports whether the run finished every file.
func (r *Report) Completed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.completed
}

// Add records a single verdict for file.
func (r *Report) Add(file string, e Entry) {
	r.AddAll(file, []Entry{e})
}

// AddAll records verdicts for file in order. Failing entries are also added to
// the failures view.
func (r *Report) AddAll(file string, entries []Entry) {
	if len(entries) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.results[file]; !seen {
		r.order = append(r.order, file)
	}
	for _, e := range entries {
		r.results[file] = append(r.results[file], e)
		if !e.Passed {
			r.failures[file] = append(r.failures[file], Failure{Action: e.Action, Message: e.Message})
		}
	}
}

// Files returns every file with at least one result, in the order first recorded.
func (r *Report) Files() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// FailedFiles returns the files with at least one failing action.
func (r *Report) FailedFiles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, f := range r.order {
		if len(r.failures[f]) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Results returns a copy of the recorded entries for file.
func (r *Report) Results(file string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.results[file]))
	copy(out, r.results[file])
	return out
}

// Failures returns a copy of the failing entries for file.
func (r *Report) Failures(file string) []Failure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Failure, len(r.failures[file]))
	copy(out, r.failures[file])
	return out
}

// FailureCount returns the total number of failing entries across all files.
func (r *Report) FailureCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, f := range r.failures {
		n += len(f)
	}
	return n
}
