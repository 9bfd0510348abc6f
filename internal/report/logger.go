// Package report provides the step logger used by page workflows and
// scenarios, and the sinks it writes to: coloured console, zap and allure
// result files.
package report

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/gotrs-io/saucedemo-e2e/internal/config"
)

// Severity of a logged message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Logger is the reporting capability shared by every workflow.
type Logger interface {
	Info(msg string)
	Success(msg string)
	Warning(msg string)
	Error(msg string, err error)
}

// EnvironmentWriter is implemented by sinks that record run metadata.
type EnvironmentWriter interface {
	WriteEnvironment(props map[string]string) error
}

// TestReporter is implemented by sinks that group output per test.
type TestReporter interface {
	StartTest(name string, labels map[string]string)
	EndTest(err error) error
}

// StepReporter is implemented by sinks that nest output into steps.
type StepReporter interface {
	StartStep(name string)
	EndStep(err error)
}

// Options carries what the sinks need besides their configuration.
type Options struct {
	Console io.Writer
	Zap     *zap.Logger
}

// New builds the logger for the configured sinks. A single sink is
// returned as is; several are combined with Tee.
func New(cfg config.ReportConfig, opts Options) (Logger, error) {
	var sinks []Logger
	for _, name := range cfg.Sinks {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "console":
			sinks = append(sinks, NewConsole(opts.Console))
		case "log", "zap":
			zl := opts.Zap
			if zl == nil {
				zl = zap.NewNop()
			}
			sinks = append(sinks, NewStructured(zl))
		case "allure":
			sinks = append(sinks, NewAllure(cfg.ResultsDir))
		case "":
		default:
			return nil, fmt.Errorf("unknown report sink %q", name)
		}
	}

	switch len(sinks) {
	case 0:
		return NewConsole(opts.Console), nil
	case 1:
		return sinks[0], nil
	default:
		return Tee(sinks...), nil
	}
}
