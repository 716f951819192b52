package securestore

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Logger interface is used to allow callers to inject custom loggers.
type Logger interface {
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})
}

type logger struct {
	*log.Logger
}

// NewLogger returns a new Logger instance backed by Logrus.
func NewLogger(level uint32) Logger {
	l := log.New()
	l.SetLevel(log.Level(level))
	l.Formatter = &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
	return &logger{l}
}

// NewLoggerWithWriter returns a logrus-backed Logger writing to w.
func NewLoggerWithWriter(level uint32, w io.Writer) Logger {
	l := NewLogger(level).(*logger)
	l.Out = w
	return l
}

// noopLogger discards all output. Used when no Logger is configured.
type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}
