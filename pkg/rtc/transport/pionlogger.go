package transport

import (
	"fmt"

	"github.com/pion/logging"

	"github.com/livekit/protocol/logger"
)

// implements logging.LoggerFactory
type pionLoggerFactory struct {
	logger logger.Logger
}

func newPionLoggerFactory(l logger.Logger) logging.LoggerFactory {
	return &pionLoggerFactory{logger: l.WithComponent("pion")}
}

func (f *pionLoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &pionLogger{logger: f.logger.WithValues("scope", scope)}
}

// implements logging.LeveledLogger, pion info is treated as debug
type pionLogger struct {
	logger logger.Logger
}

func (l *pionLogger) Trace(msg string) {}

func (l *pionLogger) Tracef(format string, args ...interface{}) {}

func (l *pionLogger) Debug(msg string) {
	l.logger.Debugw(msg)
}

func (l *pionLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugw(fmt.Sprintf(format, args...))
}

func (l *pionLogger) Info(msg string) {
	l.logger.Debugw(msg)
}

func (l *pionLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugw(fmt.Sprintf(format, args...))
}

func (l *pionLogger) Warn(msg string) {
	l.logger.Warnw(msg, nil)
}

func (l *pionLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warnw(fmt.Sprintf(format, args...), nil)
}

func (l *pionLogger) Error(msg string) {
	l.logger.Errorw(msg, nil)
}

func (l *pionLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorw(fmt.Sprintf(format, args...), nil)
}
