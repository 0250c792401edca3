package batch

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Notifier receives progress and status updates from a running batch.
type Notifier interface {
	UpdateProgress(percent float64)
	UpdateStatus(message string)
}

// NotifierFuncs adapts a pair of callbacks to Notifier. Nil callbacks are skipped.
type NotifierFuncs struct {
	Progress func(percent float64)
	Status   func(message string)
}

func (n NotifierFuncs) UpdateProgress(percent float64) {
	if n.Progress != nil {
		n.Progress(percent)
	}
}

func (n NotifierFuncs) UpdateStatus(message string) {
	if n.Status != nil {
		n.Status(message)
	}
}

var (
	colorProgress = lipgloss.Color("#88C0D0")
	colorStatus   = lipgloss.Color("#7A8291")
	colorDone     = lipgloss.Color("#A3BE8C")
)

// ConsoleNotifier prints updates to a terminal, used in headless mode.
type ConsoleNotifier struct {
	mu            sync.Mutex
	w             io.Writer
	progressStyle lipgloss.Style
	statusStyle   lipgloss.Style
	doneStyle     lipgloss.Style
}

// NewConsoleNotifier returns a notifier that writes to w. Colors are only
// emitted when w is a terminal.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	r := lipgloss.NewRenderer(w)
	return &ConsoleNotifier{
		w:             w,
		progressStyle: r.NewStyle().Bold(true).Foreground(colorProgress),
		statusStyle:   r.NewStyle().Foreground(colorStatus),
		doneStyle:     r.NewStyle().Bold(true).Foreground(colorDone),
	}
}

func (c *ConsoleNotifier) UpdateProgress(percent float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, c.progressStyle.Render(fmt.Sprintf("%.2f%% ....", percent)))
}

func (c *ConsoleNotifier) UpdateStatus(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	style := c.statusStyle
	if message == StatusCompleted {
		style = c.doneStyle
	}
	fmt.Fprintln(c.w, style.Render(message))
}

// lockedNotifier serializes calls into a notifier that is not safe for
// concurrent use.
type lockedNotifier struct {
	mu sync.Mutex
	n  Notifier
}

func (l *lockedNotifier) UpdateProgress(percent float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.n.UpdateProgress(percent)
}

func (l *lockedNotifier) UpdateStatus(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.n.UpdateStatus(message)
}

type nopNotifier struct{}

func (nopNotifier) UpdateProgress(float64) {}
func (nopNotifier) UpdateStatus(string)    {}
