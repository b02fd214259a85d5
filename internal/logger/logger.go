package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"tg-autodelete/internal/config"
)

// log levels, lowest to highest
const (
	levelDebug = iota
	levelInfo
	levelWarning
	levelError
)

var minLevel = levelInfo

// createLogFilePath generates a log file path with the current date
func createLogFilePath(logDir, prefix string) string {
	currentDate := time.Now().Format("2006-01-02")
	return filepath.Join(logDir, fmt.Sprintf("%s-%s.log", prefix, currentDate))
}

// createRotatingLogger creates a lumberjack rotating logger
func createRotatingLogger(logFilePath string, cfg *config.Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.Logger.Rotation.MaxSize,
		MaxBackups: cfg.Logger.Rotation.MaxBackups,
		MaxAge:     cfg.Logger.Rotation.MaxAge,
		Compress:   cfg.Logger.Rotation.Compress,
	}
}

// Setup configures logging to output to both stdout and a rotating log file
func Setup(cfg *config.Config) error {
	logDir := cfg.Logger.Directory

	// Create log directory if it doesn't exist
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFilePath := createLogFilePath(logDir, "tg-autodelete")
	rotatingLogger := createRotatingLogger(logFilePath, cfg)
	multiWriter := io.MultiWriter(os.Stdout, rotatingLogger)

	// Set standard logger output to the multi-writer
	log.SetOutput(multiWriter)

	// Set log flags to include date, time, and file information
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	switch strings.ToUpper(cfg.Logger.Level) {
	case "DEBUG":
		minLevel = levelDebug
	case "WARNING", "WARN":
		minLevel = levelWarning
	case "ERROR":
		minLevel = levelError
	default:
		minLevel = levelInfo
	}

	log.Printf("Logging initialized: writing to %s", logFilePath)
	return nil
}

func output(level int, prefix, msg string) {
	if level < minLevel {
		return
	}
	log.Output(3, prefix+msg)
}

func Debugf(format string, args ...interface{}) {
	output(levelDebug, "[DEBUG] ", fmt.Sprintf(format, args...))
}

func Info(args ...interface{}) {
	output(levelInfo, "[INFO] ", fmt.Sprint(args...))
}

func Infof(format string, args ...interface{}) {
	output(levelInfo, "[INFO] ", fmt.Sprintf(format, args...))
}

func Warning(args ...interface{}) {
	output(levelWarning, "[WARNING] ", fmt.Sprint(args...))
}

func Warningf(format string, args ...interface{}) {
	output(levelWarning, "[WARNING] ", fmt.Sprintf(format, args...))
}

func Error(args ...interface{}) {
	output(levelError, "[ERROR] ", fmt.Sprint(args...))
}

func Errorf(format string, args ...interface{}) {
	output(levelError, "[ERROR] ", fmt.Sprintf(format, args...))
}

func Fatalf(format string, args ...interface{}) {
	output(levelError, "[FATAL] ", fmt.Sprintf(format, args...))
	os.Exit(1)
}
