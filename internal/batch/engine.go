// Package batch runs the active actions over every matching image in a set of
// directories and records the verdicts in a report.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"batch-image-processor/internal/action"
	"batch-image-processor/internal/imagefile"
	"batch-image-processor/internal/logger"
	"batch-image-processor/internal/report"
	"batch-image-processor/internal/statistics"
)

const (
	// LoadImageAction names the synthetic entry recorded when a file cannot
	// be turned into an image handle.
	LoadImageAction = "load_image"

	StatusCompleted = "Batch Completed"
	StatusCancelled = "Batch Cancelled"
)

// ErrBusy is returned by Run while another run is in progress.
var ErrBusy = errors.New("batch already running")

// State is the engine lifecycle.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateRunning
	StateFinalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateRunning:
		return "running"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures one run.
type Options struct {
	Directories []string
	Extensions  []string
	// Actions is an explicit allow-list. Nil selects the default-enabled actions.
	Actions    []string
	ReportPath string
	SaveReport bool
	// Headless prints progress to the console instead of the engine's notifier.
	Headless bool
	Workers  int
}

// Engine orchestrates batch runs. One Engine owns one report and runs at most
// one batch at a time.
type Engine struct {
	registry *action.Registry
	logger   *logrus.Logger

	report *report.Report

	mu         sync.RWMutex
	state      State
	stats      *statistics.Statistics
	reportPath string
	notifier   Notifier
	console    io.Writer
}

// NewEngine returns an idle engine that selects actions from registry.
func NewEngine(registry *action.Registry, log *logrus.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		registry: registry,
		logger:   log,
		report:   report.New(),
		stats:    statistics.NewStatistics(),
		notifier: nopNotifier{},
		console:  os.Stdout,
	}
}

// SetNotifier sets the callback surface used for non-headless runs.
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n == nil {
		n = nopNotifier{}
	}
	e.notifier = n
}

// SetConsole sets where headless runs print progress.
func (e *Engine) SetConsole(w io.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.console = w
}

// Report returns the report of the current or most recent run.
func (e *Engine) Report() *report.Report {
	return e.report
}

// Statistics returns the counters of the current or most recent run.
func (e *Engine) Statistics() *statistics.Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// ReportPath returns the resolved report path of the current or most recent run.
func (e *Engine) ReportPath() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reportPath
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

// start moves an idle or finished engine into Scanning and installs fresh
// per-run state.
func (e *Engine) start(opts Options) (Notifier, *statistics.Statistics, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateScanning, StateRunning, StateFinalizing:
		return nil, nil, false
	}
	e.state = StateScanning
	e.stats = statistics.NewStatistics()
	e.reportPath = report.ResolvePath(opts.ReportPath)

	var n Notifier = e.notifier
	if opts.Headless {
		n = NewConsoleNotifier(e.console)
	}
	if opts.Workers > 1 {
		n = &lockedNotifier{n: n}
	}
	return n, e.stats, true
}

// Run executes one batch. It returns ErrBusy if a run is already in progress
// and a wrapped context error if ctx is cancelled before every file was
// processed. Per-file failures never abort the run.
func (e *Engine) Run(ctx context.Context, opts Options) error {
	notify, stats, ok := e.start(opts)
	if !ok {
		return ErrBusy
	}
	defer e.setState(StateDone)

	e.report.Clear()
	e.report.SetPersist(opts.SaveReport)
	reportPath := e.ReportPath()

	files := discoverFiles(opts.Directories, opts.Extensions, e.logger, stats)
	notify.UpdateProgress(0)

	active := e.registry.Select(opts.Actions)
	names := make([]string, 0, len(active))
	for _, a := range active {
		names = append(names, a.Describe().Name)
	}

	e.setState(StateRunning)
	e.report.Begin(time.Now())
	logger.WithFields(e.logger, logrus.Fields{
		"run_id":      e.report.RunID(),
		"directories": opts.Directories,
		"extensions":  opts.Extensions,
		"actions":     names,
		"files":       len(files),
		"workers":     opts.Workers,
	}).Info("Starting batch run")

	var runErr error
	if len(files) > 0 {
		runErr = e.process(ctx, files, active, opts.Workers, notify, stats)
	}

	e.setState(StateFinalizing)
	completed := runErr == nil
	e.report.Finish(time.Now(), completed)
	stats.Finalize()

	if err := e.report.Save(reportPath); err != nil {
		e.logger.WithError(err).WithField("report", reportPath).Error("Failed to save report")
		if runErr == nil {
			runErr = fmt.Errorf("save report: %w", err)
		}
	} else if e.report.Persist() {
		e.logger.WithField("report", reportPath).Info("Report saved")
	}

	if completed {
		notify.UpdateProgress(100)
		notify.UpdateStatus(StatusCompleted)
	} else {
		notify.UpdateStatus(StatusCancelled)
	}

	logger.WithFields(e.logger, logrus.Fields{
		"run_id":    e.report.RunID(),
		"processed": stats.GetFilesProcessed(),
		"failed":    stats.GetFilesFailed(),
		"duration":  stats.GetDuration().String(),
		"completed": completed,
	}).Info("Batch run finished")

	return runErr
}

// process runs every file, sequentially or on a worker pool. Progress is only
// ever emitted from the calling goroutine.
func (e *Engine) process(ctx context.Context, files []string, active []action.Action, workers int, notify Notifier, stats *statistics.Statistics) error {
	increment := 100 / float64(len(files))

	if workers <= 1 {
		for i, file := range files {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("batch cancelled after %d of %d files: %w", i, len(files), err)
			}
			e.processFile(file, active, notify, stats)
			notify.UpdateProgress(float64(i+1) * increment)
		}
		return nil
	}

	var wg sync.WaitGroup
	fileChan := make(chan string)
	doneChan := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range fileChan {
				e.processFile(file, active, notify, stats)
				doneChan <- struct{}{}
			}
		}()
	}

	go func() {
		defer close(fileChan)
		for _, file := range files {
			select {
			case <-ctx.Done():
				return
			case fileChan <- file:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(doneChan)
	}()

	done := 0
	for range doneChan {
		done++
		notify.UpdateProgress(float64(done) * increment)
	}

	if done < len(files) {
		return fmt.Errorf("batch cancelled after %d of %d files: %w", done, len(files), ctx.Err())
	}
	return nil
}

// processFile runs the active actions on one file and records every verdict
// for it at once. An error or panic from an action ends that file with a
// synthetic failing entry.
func (e *Engine) processFile(path string, active []action.Action, notify Notifier, stats *statistics.Statistics) {
	log := logger.WithFile(e.logger, path)
	log.Debug("Processing file")

	entries := make([]report.Entry, 0, len(active))
	fail := func(name string, err error) {
		entries = append(entries, report.Entry{Action: name, Passed: false, Message: "error: " + err.Error()})
		stats.IncrementFilesWithErrors()
		stats.AddError(path, name, err.Error())
		logger.WithFileAction(e.logger, path, name).WithError(err).Warn("File could not be processed")
	}

	img, err := imagefile.New(path)
	if err != nil {
		fail(LoadImageAction, err)
	} else {
		for _, a := range active {
			d := a.Describe()
			notify.UpdateStatus(fmt.Sprintf("%s: %s", d.Status, img.Name()))

			v, err := execute(a, img)
			if err != nil {
				fail(d.Name, err)
				break
			}

			entries = append(entries, report.Entry{Action: d.Name, Passed: v.Passed, Message: v.Message})
			stats.RecordAction(d.Name, v.Passed)
			if v.BytesSaved > 0 {
				stats.AddBytesSaved(v.BytesSaved)
			}
			logger.WithFileAction(e.logger, path, d.Name).WithFields(logrus.Fields{
				"passed":  v.Passed,
				"verdict": v.Message,
			}).Debug("Action finished")
		}
	}

	passed := true
	for _, entry := range entries {
		if !entry.Passed {
			passed = false
			break
		}
	}
	e.report.AddAll(path, entries)
	stats.RecordFile(passed)
}

func execute(a action.Action, img *imagefile.Handle) (v action.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.Execute(img)
}
