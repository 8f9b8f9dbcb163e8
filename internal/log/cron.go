package log

import "github.com/robfig/cron/v3"

// CronLogger adapts a Logger to cron.Logger.
type CronLogger struct {
	l *Logger
}

var _ cron.Logger = CronLogger{}

func NewCronLogger(l *Logger) CronLogger {
	return CronLogger{l: l}
}

// Info is used by cron for routine scheduling chatter, so it logs at debug.
func (c CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append([]interface{}{FieldError, err}, keysAndValues...)...)
}
