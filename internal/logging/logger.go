package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "WIFIPROV_LOG_LEVEL"

// Options controls logger construction.
type Options struct {
	Level string // debug, info, warn, error (empty = WIFIPROV_LOG_LEVEL)

	// File, when set, sends output to a rotated log file instead of stdout.
	File       string
	MaxSizeMB  int // megabytes before rotation (default 5)
	MaxBackups int // rotated files to keep (default 3)
}

// Initialize creates the global logger.
// If opts.Level is empty, it checks the WIFIPROV_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(opts Options) error {
	level := opts.Level
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	zapLevel := parseLevel(level)

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if opts.File == "" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

		config := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapLevel),
			Development:      false,
			Encoding:         "console",
			EncoderConfig:    encoderConfig,
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		}

		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	}

	// No colour codes in files
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(rotatingWriter(opts)),
		zap.NewAtomicLevelAt(zapLevel),
	)
	logger = zap.New(core, zap.AddCaller())

	return nil
}

// InitializeFromEnv initializes the logger from the WIFIPROV_LOG_LEVEL
// environment variable. CLI commands use this to stay silent by default.
func InitializeFromEnv() error {
	return Initialize(Options{})
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		// Unknown level - use info as default when explicitly set to something
		return zapcore.InfoLevel
	}
}

func rotatingWriter(opts Options) *lumberjack.Logger {
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 5
	}
	maxBackups := opts.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Fallback to silent logger if not initialized
		logger = zap.NewNop()
	}
	return logger
}

// SetLogger replaces the global logger. Tests use this with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogTransition logs a state machine transition
func LogTransition(from, to, reason string) {
	Info("State transition",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("reason", reason),
	)
}

// LogNetworkEvent logs an event delivered by the network layer
func LogNetworkEvent(kind string, address string, reason string) {
	fields := []zap.Field{zap.String("event", kind)}
	if address != "" {
		fields = append(fields, zap.String("address", address))
	}
	if reason != "" {
		fields = append(fields, zap.String("reason", reason))
	}
	Info("Network event", fields...)
}

// LogHTTPRequest logs an HTTP request
func LogHTTPRequest(requestID, remoteAddr, method, path string, contentLength int64) {
	Info("HTTP request received",
		zap.String("request_id", requestID),
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int64("content_length", contentLength),
	)
}

// LogHTTPResponse logs an HTTP response
func LogHTTPResponse(requestID, remoteAddr string, statusCode int) {
	Info("HTTP response sent",
		zap.String("request_id", requestID),
		zap.String("remote_addr", remoteAddr),
		zap.Int("status_code", statusCode),
	)
}

// LogRawBytes logs raw bytes (useful for debugging form parsing)
func LogRawBytes(label string, data []byte) {
	Debug(label,
		zap.Int("length", len(data)),
		zap.String("ascii", asciiDump(data)),
	)
}

func asciiDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	// Limit to first 256 bytes
	if len(data) > 256 {
		data = data[:256]
	}

	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
