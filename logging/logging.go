package logging

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// ConfigureJSON sets the logger to emit JSON logs with a severity field that
// log routers understand, regardless of the logrus level names.
func ConfigureJSON(logger *log.Logger) {
	if logger == nil {
		return
	}

	logger.SetFormatter(&log.JSONFormatter{})
	logger.AddHook(SeverityHook{})
}

// ConfigureLevel parses a level name ("trace", "debug", "info", "warn",
// "error") and applies it to the logger, defaulting to info when the name is
// not recognised.
func ConfigureLevel(logger *log.Logger, level string) {
	if logger == nil {
		return
	}

	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		logger.SetLevel(log.InfoLevel)
		logger.WithField("level", level).Warn("unknown log level, using info")
		return
	}

	logger.SetLevel(parsed)
}

// SeverityHook adds a severity field to log entries.
type SeverityHook struct{}

func (SeverityHook) Levels() []log.Level {
	return log.AllLevels
}

func (SeverityHook) Fire(entry *log.Entry) error {
	if entry == nil {
		return nil
	}
	if _, ok := entry.Data["severity"]; ok {
		return nil
	}

	entry.Data["severity"] = severityForLevel(entry.Level)
	return nil
}

func severityForLevel(level log.Level) string {
	switch level {
	case log.PanicLevel:
		return "EMERGENCY"
	case log.FatalLevel:
		return "CRITICAL"
	case log.ErrorLevel:
		return "ERROR"
	case log.WarnLevel:
		return "WARNING"
	case log.InfoLevel:
		return "INFO"
	case log.DebugLevel, log.TraceLevel:
		return "DEBUG"
	default:
		return "DEFAULT"
	}
}
