package internal

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// InitLogger sets the global logrus formatter, level and output.
// Logs go to stderr unless logfile is set; stdout is left to the program's own output.
func InitLogger(logfile, level string) {
	initLogger(os.Stderr, logfile, level)
}

func initLogger(std io.Writer, logfile, level string) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableQuote:  true,
		PadLevelText:  true,
	})
	logrus.SetOutput(std)
	if logfile != "" {
		file, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			logrus.SetOutput(file)
		} else {
			logrus.WithError(err).Warn("Failed to open log file, logging to stderr")
		}
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
