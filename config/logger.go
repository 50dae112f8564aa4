package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process logger. It is usable before InitLogger runs.
var Log = logrus.New()

func InitLogger(level string) {
	Log = logrus.New()
	Log.SetFormatter(&logrus.JSONFormatter{})
	Log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
