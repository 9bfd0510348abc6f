package report

import (
	"errors"
	"sync"
)

type tee struct {
	sinks []Logger
}

// Tee fans every call out to all sinks. Optional capabilities are forwarded
// to the sinks that implement them.
func Tee(sinks ...Logger) Logger {
	return &tee{sinks: sinks}
}

func (t *tee) Info(msg string) {
	for _, s := range t.sinks {
		s.Info(msg)
	}
}

func (t *tee) Success(msg string) {
	for _, s := range t.sinks {
		s.Success(msg)
	}
}

func (t *tee) Warning(msg string) {
	for _, s := range t.sinks {
		s.Warning(msg)
	}
}

func (t *tee) Error(msg string, err error) {
	for _, s := range t.sinks {
		s.Error(msg, err)
	}
}

func (t *tee) StartTest(name string, labels map[string]string) {
	for _, s := range t.sinks {
		if tr, ok := s.(TestReporter); ok {
			tr.StartTest(name, labels)
		}
	}
}

func (t *tee) EndTest(err error) error {
	var errs []error
	for _, s := range t.sinks {
		if tr, ok := s.(TestReporter); ok {
			errs = append(errs, tr.EndTest(err))
		}
	}
	return errors.Join(errs...)
}

func (t *tee) StartStep(name string) {
	for _, s := range t.sinks {
		if sr, ok := s.(StepReporter); ok {
			sr.StartStep(name)
		}
	}
}

func (t *tee) EndStep(err error) {
	for _, s := range t.sinks {
		if sr, ok := s.(StepReporter); ok {
			sr.EndStep(err)
		}
	}
}

func (t *tee) WriteEnvironment(props map[string]string) error {
	var errs []error
	for _, s := range t.sinks {
		if ew, ok := s.(EnvironmentWriter); ok {
			errs = append(errs, ew.WriteEnvironment(props))
		}
	}
	return errors.Join(errs...)
}

// Entry is one message captured by Memory.
type Entry struct {
	Severity Severity
	Message  string
	Err      error
}

// Memory keeps every message in memory. Used by tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) add(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *Memory) Info(msg string)    { m.add(Entry{Severity: SeverityInfo, Message: msg}) }
func (m *Memory) Success(msg string) { m.add(Entry{Severity: SeveritySuccess, Message: msg}) }
func (m *Memory) Warning(msg string) { m.add(Entry{Severity: SeverityWarning, Message: msg}) }

func (m *Memory) Error(msg string, err error) {
	m.add(Entry{Severity: SeverityError, Message: msg, Err: err})
}

// Entries returns a copy of the captured messages.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Last returns the most recent message, if any.
func (m *Memory) Last() (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return Entry{}, false
	}
	return m.entries[len(m.entries)-1], true
}

// Count returns how many messages of the given severity were captured.
func (m *Memory) Count(sev Severity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.Severity == sev {
			n++
		}
	}
	return n
}
