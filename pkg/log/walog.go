package log

import (
	walog "go.mau.fi/whatsmeow/util/log"
)

// waLogger routes whatsmeow logging through the shared logrus instance.
type waLogger struct {
	module string
}

// WhatsApp returns a whatsmeow logger tagged with module.
func WhatsApp(module string) walog.Logger {
	return &waLogger{module: module}
}

func (l *waLogger) entry() *Entry {
	return WithFields(Fields{"module": l.module})
}

func (l *waLogger) Warnf(msg string, args ...interface{}) {
	l.entry().Warnf(msg, args...)
}

func (l *waLogger) Errorf(msg string, args ...interface{}) {
	l.entry().Errorf(msg, args...)
}

func (l *waLogger) Infof(msg string, args ...interface{}) {
	l.entry().Infof(msg, args...)
}

func (l *waLogger) Debugf(msg string, args ...interface{}) {
	l.entry().Debugf(msg, args...)
}

func (l *waLogger) Sub(module string) walog.Logger {
	return &waLogger{module: l.module + "/" + module}
}
