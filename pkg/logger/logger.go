// Component-tagged logging for the adapter.
// Every log line carries a short component name ("http", "ws", "forward",
// "auth", ...) so one process serving many connections stays greppable.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the global logger output.
type Config struct {
	Level        string
	File         string
	MaxSize      int // megabytes
	MaxBackups   int
	MaxAge       int // days
	Compress     bool
	EnableStdout bool
}

var (
	mu  sync.RWMutex
	log = defaultLogger()
)

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// Init reconfigures the global logger. Safe to call once at startup;
// components created before Init pick up the new settings automatically.
func Init(cfg Config) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	var writers []io.Writer
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}
	if cfg.EnableStdout || cfg.File == "" {
		writers = append(writers, os.Stdout)
	}
	l.SetOutput(io.MultiWriter(writers...))

	if level == logrus.DebugLevel {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	mu.Lock()
	log = l
	mu.Unlock()
	return nil
}

// SetOutput redirects log output. Used by tests to silence or capture logs.
func SetOutput(w io.Writer) {
	mu.RLock()
	defer mu.RUnlock()
	log.SetOutput(w)
}

func entry(component string) *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()
	return log.WithField("component", component)
}

func entryF(component string, fields map[string]interface{}) *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()
	return log.WithField("component", component).WithFields(fields)
}

func DebugC(component, msg string) { entry(component).Debug(msg) }
func InfoC(component, msg string)  { entry(component).Info(msg) }
func WarnC(component, msg string)  { entry(component).Warn(msg) }
func ErrorC(component, msg string) { entry(component).Error(msg) }

func DebugCF(component, msg string, fields map[string]interface{}) {
	entryF(component, fields).Debug(msg)
}

func InfoCF(component, msg string, fields map[string]interface{}) {
	entryF(component, fields).Info(msg)
}

func WarnCF(component, msg string, fields map[string]interface{}) {
	entryF(component, fields).Warn(msg)
}

func ErrorCF(component, msg string, fields map[string]interface{}) {
	entryF(component, fields).Error(msg)
}
