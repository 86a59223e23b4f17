package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu          sync.RWMutex
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
	logFile     *os.File
	debugMode   bool
)

// Init configures leveled logging. Output always goes to stderr; when logsDir is not
// empty a dated log file in that directory receives a copy.
func Init(logsDir, appName string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	debugMode = debug
	var writer io.Writer = os.Stderr

	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return fmt.Errorf("create logs directory: %w", err)
		}
		logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", appName, time.Now().Format("2006-01-02")))
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = file
		writer = io.MultiWriter(os.Stderr, file)
	}

	flags := log.Ldate | log.Ltime | log.Lshortfile
	infoLogger = log.New(writer, "[INFO] ", flags)
	warnLogger = log.New(writer, "[WARN] ", flags)
	errorLogger = log.New(writer, "[ERROR] ", flags)
	debugLogger = log.New(writer, "[DEBUG] ", flags)
	return nil
}

// Close releases the log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// Info logs an informational message.
func Info(format string, v ...any) {
	output(levelInfo, format, v...)
}

// Warn logs a recoverable problem.
func Warn(format string, v ...any) {
	output(levelWarn, format, v...)
}

// Error logs a failure.
func Error(format string, v ...any) {
	output(levelError, format, v...)
}

// Debug logs only when debug mode is enabled.
func Debug(format string, v ...any) {
	mu.RLock()
	enabled := debugMode
	mu.RUnlock()
	if !enabled {
		return
	}
	output(levelDebug, format, v...)
}

type level int

const (
	levelInfo level = iota
	levelWarn
	levelError
	levelDebug
)

var prefixes = map[level]string{
	levelInfo:  "[INFO] ",
	levelWarn:  "[WARN] ",
	levelError: "[ERROR] ",
	levelDebug: "[DEBUG] ",
}

func output(lvl level, format string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()

	var target *log.Logger
	switch lvl {
	case levelInfo:
		target = infoLogger
	case levelWarn:
		target = warnLogger
	case levelError:
		target = errorLogger
	case levelDebug:
		target = debugLogger
	}
	if target == nil {
		// Not initialised yet: fall back to the standard logger.
		log.Printf(prefixes[lvl]+format, v...)
		return
	}
	_ = target.Output(3, fmt.Sprintf(format, v...))
}
