package notify

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// Level is the severity of a notice
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a single user-visible message
type Notice struct {
	Level        Level     `json:"level"`
	Message      string    `json:"message"`
	InvocationID string    `json:"invocation_id,omitempty"`
	RuleID       string    `json:"rule_id,omitempty"`
	Time         time.Time `json:"time"`
}

// Notifier shows notices to the user
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(n Notice)

// Notify calls f
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

// Discard drops every notice
var Discard Notifier = NotifierFunc(func(Notice) {})

// Recorder keeps every notice in memory
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records n
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Messages returns the recorded messages in arrival order
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := make([]string, len(r.notices))
	for i, n := range r.notices {
		msgs[i] = n.Message
	}
	return msgs
}

// Reset forgets every recorded notice
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.notices = nil
	r.mu.Unlock()
}

// Terminal writes notices as single lines, with pterm prefixes unless Plain
type Terminal struct {
	Writer io.Writer
	Plain  bool

	mu sync.Mutex
}

// NewTerminal returns a terminal notifier writing to stderr
func NewTerminal(plain bool) *Terminal {
	return &Terminal{Writer: os.Stderr, Plain: plain}
}

// Notify prints n
func (t *Terminal) Notify(n Notice) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.Writer
	if w == nil {
		w = os.Stderr
	}

	if t.Plain {
		_, _ = fmt.Fprintf(w, "%s: %s\n", n.Level, n.Message)
		return
	}
	_, _ = fmt.Fprintln(w, printerFor(n.Level).Sprint(n.Message))
}

func printerFor(level Level) *pterm.PrefixPrinter {
	switch level {
	case LevelSuccess:
		return &pterm.Success
	case LevelWarning:
		return &pterm.Warning
	case LevelError:
		return &pterm.Error
	default:
		return &pterm.Info
	}
}

// Multi fans a notice out to several notifiers
type Multi []Notifier

// Notify forwards n to every notifier
func (m Multi) Notify(n Notice) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}
