package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     string // "console" or "json"
	Caller     bool   // Include caller information
	Stacktrace string // Level at which to include stack traces
}

// ConfigFromEnv creates a logger configuration from environment variables
func ConfigFromEnv() *Config {
	cfg := &Config{
		Level:      InfoLevel,
		Format:     "console",
		Stacktrace: "panic",
	}

	levelStr := os.Getenv("TRAVELBUDDY_LOG_LEVEL")
	if levelStr == "" {
		// Fall back to verbosity when no explicit level is set
		switch os.Getenv("TRAVELBUDDY_VERBOSITY") {
		case "debug":
			levelStr = "debug"
		default:
			levelStr = "info"
		}
	}
	cfg.Level = LevelFromString(levelStr)

	if format := os.Getenv("TRAVELBUDDY_LOG_FORMAT"); format != "" {
		cfg.Format = strings.ToLower(format)
	}
	cfg.Caller = os.Getenv("TRAVELBUDDY_LOG_CALLER") == "true"
	if stacktrace := os.Getenv("TRAVELBUDDY_LOG_STACKTRACE"); stacktrace != "" {
		cfg.Stacktrace = strings.ToLower(stacktrace)
	}
	return cfg
}

// IsDevelopment returns true if the logger is configured for development mode
func (c *Config) IsDevelopment() bool {
	return c.Format != "json"
}

// NewFromConfig builds a zap-backed logger
func NewFromConfig(c *Config) (*Logger, error) {
	var zc zap.Config
	if c.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(c.Level.zapLevel())
	zc.DisableCaller = !c.Caller
	// Stack traces are added explicitly below
	zc.DisableStacktrace = true

	z, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	var stackLevel zapcore.Level
	switch c.Stacktrace {
	case "error":
		stackLevel = zap.ErrorLevel
	case "panic":
		stackLevel = zap.PanicLevel
	default:
		stackLevel = zap.FatalLevel
	}
	return Wrap(z.WithOptions(zap.AddStacktrace(stackLevel))), nil
}

// NewFromEnv creates a logger configured from environment variables
func NewFromEnv() (*Logger, error) {
	return NewFromConfig(ConfigFromEnv())
}

// Timed creates a timed logger for measuring operation duration
func (l *Logger) Timed(operation string) *TimedLogger {
	l.zap.Debug("Operation started", zap.String("operation", operation))
	return &TimedLogger{logger: l, start: time.Now(), op: operation}
}

// TimedLogger tracks the duration of an operation
type TimedLogger struct {
	logger *Logger
	start  time.Time
	op     string
}

// Done logs the completion of the timed operation
func (t *TimedLogger) Done() {
	duration := time.Since(t.start)
	t.logger.zap.Debug("Operation completed",
		zap.String("operation", t.op),
		zap.Duration("duration", duration),
		zap.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	)
}

// DoneWithError logs the completion of the timed operation with an error
func (t *TimedLogger) DoneWithError(err error) {
	if err == nil {
		t.Done()
		return
	}
	duration := time.Since(t.start)
	t.logger.zap.Warn("Operation failed",
		zap.String("operation", t.op),
		zap.Error(err),
		zap.Duration("duration", duration),
		zap.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	)
}
