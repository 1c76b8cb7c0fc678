package errors

import (
	"os"
	"sync"
	"time"

	"github.com/certifi/gocertifi"
	"github.com/getsentry/sentry-go"

	"github.com/fardannozami/scoopquest/pkg/log"
)

// Setting DEBUG disables reporting.
const debugMode = "DEBUG"

var (
	mu        sync.RWMutex
	reporters []Reporter
)

// Reporter receives errors that were handled locally but should still be seen.
type Reporter interface {
	Report(error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(error)

func (f ReporterFunc) Report(err error) {
	f(err)
}

// Register adds r to the reporter chain.
func Register(r Reporter) {
	mu.Lock()
	defer mu.Unlock()
	reporters = append(reporters, r)
}

// Reset removes every registered reporter.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	reporters = nil
}

func report(err error) {
	if err == nil || os.Getenv(debugMode) != "" {
		return
	}
	mu.RLock()
	rs := make([]Reporter, len(reporters))
	copy(rs, reporters)
	mu.RUnlock()
	for _, r := range rs {
		r.Report(err)
	}
}

type sentryReporter struct{}

func (s *sentryReporter) Report(err error) {
	sentry.CaptureException(err)
}

// NewSentryReporter initializes sentry and registers it as a reporter.
// An empty DSN is not an error; reporting is simply skipped.
func NewSentryReporter(dsn string) error {
	if dsn == "" {
		log.Warn("empty DSN found, skipping sentry reporter initialization.")
		return nil
	}
	rootCAs, err := gocertifi.CACerts()
	if err != nil {
		return Wrap(err, "init sentry CA")
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, CaCerts: rootCAs}); err != nil {
		return Wrap(err, "init sentry")
	}
	Register(&sentryReporter{})
	log.Info("sentry error reporter initialized.")
	return nil
}

// Flush waits for buffered sentry events.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
