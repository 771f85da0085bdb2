// internal/infra/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"student_schedule_bot/internal/infra/config"
)

// Log is the process logger. Components derive entries from it.
var Log = logrus.New()

// structuredEnvs get JSON output for log shippers.
var structuredEnvs = map[string]bool{"production": true, "staging": true}

// Init configures Log from the application config and writes to stdout.
func Init(cfg *config.AppConfig) {
	Configure(Log, cfg.LogLevel, cfg.Environment, os.Stdout)
	Log.WithFields(logrus.Fields{
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Info("Logger initialized")
}

// Configure applies level, formatter and output to l. An unknown level falls
// back to info.
func Configure(l *logrus.Logger, level, environment string, out io.Writer) {
	l.SetOutput(out)

	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		parsed = logrus.InfoLevel
		defer l.Warnf("Invalid log level '%s', defaulting to 'info'", level)
	}
	l.SetLevel(parsed)

	if structuredEnvs[strings.ToLower(environment)] {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		return
	}
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
