package report

import (
	"go.uber.org/zap"
)

// Structured forwards messages to a zap logger.
type Structured struct {
	base *zap.Logger
	log  *zap.Logger
}

func NewStructured(l *zap.Logger) *Structured {
	return &Structured{base: l, log: l}
}

func (s *Structured) Info(msg string) {
	s.log.Info(msg, zap.String("severity", string(SeverityInfo)))
}

func (s *Structured) Success(msg string) {
	s.log.Info(msg, zap.String("severity", string(SeveritySuccess)))
}

func (s *Structured) Warning(msg string) {
	s.log.Warn(msg, zap.String("severity", string(SeverityWarning)))
}

func (s *Structured) Error(msg string, err error) {
	s.log.Error(msg, zap.String("severity", string(SeverityError)), zap.Error(err))
}

func (s *Structured) StartTest(name string, labels map[string]string) {
	fields := []zap.Field{zap.String("test", name)}
	for k, v := range labels {
		fields = append(fields, zap.String(k, v))
	}
	s.log = s.base.With(fields...)
	s.log.Debug("test started")
}

func (s *Structured) EndTest(err error) error {
	if err != nil {
		s.log.Debug("test failed", zap.Error(err))
	} else {
		s.log.Debug("test passed")
	}
	s.log = s.base
	return nil
}
