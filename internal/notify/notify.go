// Package notify carries user-facing notifications (title, description,
// severity) from the client components to whatever displays them.
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Severity distinguishes success notices from failures.
type Severity string

const (
	Normal      Severity = "normal"
	Destructive Severity = "destructive"
)

// Notification is a single user-facing message.
type Notification struct {
	Title       string
	Description string
	Severity    Severity
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// Success builds a normal notification.
func Success(title, description string) Notification {
	return Notification{Title: title, Description: description, Severity: Normal}
}

// Failure builds a destructive notification.
func Failure(title, description string) Notification {
	return Notification{Title: title, Description: description, Severity: Destructive}
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	log *zap.SugaredLogger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs destructive notifications at warn level and the rest at info.
func (l *LogNotifier) Notify(n Notification) {
	if n.Severity == Destructive {
		l.log.Warnw(n.Title, "description", n.Description)
		return
	}
	l.log.Infow(n.Title, "description", n.Description)
}

// WriterNotifier prints notifications as text lines, e.g. to a terminal.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a WriterNotifier writing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify writes "title: description", prefixed with "!" for failures.
func (wn *WriterNotifier) Notify(n Notification) {
	wn.mu.Lock()
	defer wn.mu.Unlock()

	prefix := "*"
	if n.Severity == Destructive {
		prefix = "!"
	}
	if n.Description == "" {
		_, _ = fmt.Fprintf(wn.w, "%s %s\n", prefix, n.Title)
		return
	}
	_, _ = fmt.Fprintf(wn.w, "%s %s: %s\n", prefix, n.Title, n.Description)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Notify forwards n to every notifier in order.
func (m Multi) Notify(n Notification) {
	for _, target := range m {
		target.Notify(n)
	}
}

// Recorder keeps every notification in memory. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify appends n.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification and whether there was one.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
