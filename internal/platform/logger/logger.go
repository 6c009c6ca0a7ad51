package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config defines the configuration for the logger.
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, console
	EnableColor bool   // console mode only
	// Service is attached to every json entry.
	Service string
}

var (
	globalLogger *zap.Logger
	atom         = zap.NewAtomicLevel()
	mu           sync.RWMutex
)

// DefaultConfig reads LOG_LEVEL and LOG_FORMAT with info/json fallbacks.
func DefaultConfig() Config {
	return Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		EnableColor: shouldEnableColor(),
		Service:     "analytics-api",
	}
}

// New builds a logger without touching the global one.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	return build(cfg, level)
}

func build(cfg Config, level zap.AtomicLevel) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	format := strings.ToLower(cfg.Format)
	if format != "console" {
		format = "json"
	}

	if format == "console" {
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		if cfg.EnableColor {
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}

	zapConfig := zap.Config{
		Level:             level,
		Development:       false,
		Encoding:          format,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: level.Level() > zapcore.DebugLevel,
	}
	if format == "json" && cfg.Service != "" {
		zapConfig.InitialFields = map[string]interface{}{"service": cfg.Service}
	}

	return zapConfig.Build()
}

// Initialize replaces the global logger. Safe to call more than once, e.g.
// after configuration has been loaded.
func Initialize(cfg Config) (*zap.Logger, error) {
	atom.SetLevel(parseLevel(cfg.Level))
	l, err := build(cfg, atom)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	globalLogger = l
	mu.Unlock()

	zap.ReplaceGlobals(l)
	return l, nil
}

// Get returns the global logger, initialising it with defaults on first use.
func Get() *zap.Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	l, err := Initialize(DefaultConfig())
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// SetLevel changes the global level at runtime.
func SetLevel(lvl string) {
	atom.SetLevel(parseLevel(lvl))
}

// Level reports the current global level.
func Level() zapcore.Level {
	return atom.Level()
}

func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.ToLower(value)
	}
	return fallback
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// shouldEnableColor honours NO_COLOR (https://no-color.org/) then LOG_COLOR.
func shouldEnableColor() bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	if val := os.Getenv("LOG_COLOR"); val != "" {
		return val == "true" || val == "1"
	}
	return true
}
