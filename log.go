package vlcbridge

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the logger an Instance writes to.
// An unknown level falls back to info.
func NewLogger(cfg Config) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	if cfg.LogJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l.SetLevel(parseLevel(cfg.LogLevel, logrus.InfoLevel))

	return l
}

// EngineLevel returns the most verbose engine log level
// that should reach the logger.
func (c Config) EngineLevel() logrus.Level {
	return parseLevel(c.EngineLogLevel, logrus.WarnLevel)
}

func parseLevel(lvl string, fallback logrus.Level) logrus.Level {
	parsed, err := logrus.ParseLevel(lvl)
	if err != nil {
		return fallback
	}

	return parsed
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return logrus.NewEntry(l)
}
