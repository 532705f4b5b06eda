package logging

import (
	"io"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// rotateThresholdMB is the size at which the installer log is rotated.
// Rotated siblings keep lumberjack's timestamp suffix next to the live file.
const rotateThresholdMB = 1

// Init parses the log level and points the global logger at a rotating
// file sink. An empty path or the special value "console" keeps logging
// on stderr, which is the headless fallback.
func Init(logLevel string, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	if logPath != "" && logPath != "console" {
		lumberjackLogger := &lumberjack.Logger{
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    rotateThresholdMB,
			MaxBackups: 10,
			MaxAge:     30, // days
		}
		log.SetOutput(io.Writer(lumberjackLogger))
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(level)
	return nil
}

// NewRotatingWriter returns the raw rotating writer used by Init. The
// service descriptor points the agent's stdout/stderr at plain files; this
// writer is only for the installer's own log.
func NewRotatingWriter(logPath string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   filepath.ToSlash(logPath),
		MaxSize:    rotateThresholdMB,
		MaxBackups: 10,
		MaxAge:     30,
	}
}
