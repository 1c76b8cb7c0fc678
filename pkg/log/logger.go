package log

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
)

var logger *logrus.Logger

// nolint:gochecknoinits
func init() {
	logger = newLogger()
}

// Fields is an alias so callers don't need to import logrus.
type Fields = logrus.Fields

func newLogger() *logrus.Logger {
	return &logrus.Logger{
		Out:   os.Stderr,
		Level: logrus.InfoLevel,
		Hooks: make(logrus.LevelHooks),
		Formatter: &easy.Formatter{
			TimestampFormat: "01-02 15:04:05.000",
			LogFormat:       "[%lvl%]   [%time%]   -   %msg%\r\n",
		},
	}
}

// SetLevel accepts debug, info, warn or error. Anything else means info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	Infof("log level set to %s.", strings.ToUpper(logger.GetLevel().String()))
}

// WithFields returns an entry whose message is suffixed with the given fields.
// The easy formatter only prints %msg%, so fields are rendered inline.
func WithFields(fields Fields) *Entry {
	return &Entry{fields: fields}
}

// Entry is a set of fields waiting for a log call.
type Entry struct {
	fields Fields
}

func (e *Entry) render(msg string) string {
	if len(e.fields) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for _, k := range sortedKeys(e.fields) {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(fmt.Sprint(e.fields[k]))
	}
	return sb.String()
}

func (e *Entry) Debugf(format string, args ...interface{}) {
	logger.Debug(e.render(fmt.Sprintf(format, args...)))
}

func (e *Entry) Infof(format string, args ...interface{}) {
	logger.Info(e.render(fmt.Sprintf(format, args...)))
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	logger.Warn(e.render(fmt.Sprintf(format, args...)))
}

func (e *Entry) Errorf(format string, args ...interface{}) {
	logger.Error(e.render(fmt.Sprintf(format, args...)))
}

func Debugf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

func Info(content interface{}) {
	logger.Info(content)
}

func Infof(format string, args ...interface{}) {
	logger.Info(fmt.Sprintf(format, args...))
}

func Warn(content interface{}) {
	logger.Warn(content)
}

func Warnf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf(format, args...))
}

func Fatalf(format string, args ...interface{}) {
	logger.Fatal(fmt.Sprintf(format, args...))
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
