package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger builds the process-wide logger from LOG_LEVEL.
func InitLogger() {
	Logger = NewLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
}

// NewLogger returns a JSON logger writing to out. Unknown levels fall back to info.
func NewLogger(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil || level == "" {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	logger.SetOutput(out)
	return logger
}

func GetLogger() *logrus.Logger {
	if Logger == nil {
		InitLogger()
	}
	return Logger
}
