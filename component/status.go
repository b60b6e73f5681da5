package component

import (
	"log/slog"
	"sync"

	"github.com/mklimuk/soil"
)

var _ soil.Status = &Status{}

// Status tracks the health of a single component. Transitions are logged; repeated
// identical messages are not.
type Status struct {
	mx      sync.RWMutex
	name    string
	warning string
	err     string
	failed  bool
}

func NewStatus(name string) *Status {
	return &Status{name: name}
}

func (s *Status) SetWarning(msg string) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.warning != msg {
		slog.Warn(msg, "component", s.name)
	}
	s.warning = msg
}

func (s *Status) ClearWarning() {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.warning != "" {
		slog.Info("warning cleared", "component", s.name, "warning", s.warning)
	}
	s.warning = ""
}

func (s *Status) SetError(msg string) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.err != msg {
		slog.Error(msg, "component", s.name)
	}
	s.err = msg
}

func (s *Status) ClearError() {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.err != "" {
		slog.Info("error cleared", "component", s.name, "error", s.err)
	}
	s.err = ""
}

// MarkFailed is terminal: a failed component stays failed.
func (s *Status) MarkFailed() {
	s.mx.Lock()
	defer s.mx.Unlock()
	if !s.failed {
		slog.Error("component marked as failed", "component", s.name)
	}
	s.failed = true
}

func (s *Status) HasError() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.err != ""
}

func (s *Status) HasWarning() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.warning != ""
}

func (s *Status) IsFailed() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.failed
}

// Warning returns the current warning message, empty when clear.
func (s *Status) Warning() string {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.warning
}

// Error returns the current error message, empty when clear.
func (s *Status) Error() string {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.err
}

// Snapshot is a point-in-time copy of a Status, suitable for YAML dumps.
type Snapshot struct {
	Name    string `yaml:"name"`
	Warning string `yaml:"warning,omitempty"`
	Error   string `yaml:"error,omitempty"`
	Failed  bool   `yaml:"failed"`
}

func (s *Status) Snapshot() Snapshot {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return Snapshot{
		Name:    s.name,
		Warning: s.warning,
		Error:   s.err,
		Failed:  s.failed,
	}
}
