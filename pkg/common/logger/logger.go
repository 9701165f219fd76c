package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is usable before Init so packages can log from tests.
var Log = logrus.New()

// Init configures Log from LOG_LEVEL (default info) and LOG_FORMAT
// (json, or text for local runs).
func Init() {
	Log = New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func New(level, format string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if strings.EqualFold(format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)
	return log
}

// Component tags every entry with the emitting component.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}
