package store

import "github.com/sirupsen/logrus"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Toast is a user-facing notification. Every failure in this layer funnels
// through a Notifier instead of propagating an error to the caller.
type Toast struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

type Notifier interface {
	Notify(toast Toast)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(toast Toast)

func (f NotifierFunc) Notify(toast Toast) {
	f(toast)
}

// LogNotifier writes toasts to the diagnostic log. Used standalone in tests
// and tools; the server wraps it together with the websocket feed.
type LogNotifier struct{}

func (LogNotifier) Notify(toast Toast) {
	entry := logrus.WithFields(logrus.Fields{
		"title":    toast.Title,
		"severity": toast.Severity,
	})
	if toast.Severity == SeverityError {
		entry.Warn(toast.Description)
		return
	}
	entry.Info(toast.Description)
}

// MultiNotifier fans a toast out to several sinks.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(toast Toast) {
	for _, n := range m {
		n.Notify(toast)
	}
}
