package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a logger for the given mode ("development" or "production") and level.
func New(mode, level string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(sanitizeKVs(keysAndValues)...)}
}

// Gorm routes SQL logging through this logger at debug level.
func (l *Logger) Gorm(level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(printfWriter{l: l}, gormlogger.Config{
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

type printfWriter struct{ l *Logger }

func (w printfWriter) Printf(format string, args ...interface{}) {
	w.l.SugaredLogger.Debugf(format, args...)
}

func sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := strings.ToLower(fmt.Sprint(kv[i]))
		if isRedactKey(key) {
			out = append(out, kv[i], "[REDACTED]")
			continue
		}
		out = append(out, kv[i], kv[i+1])
	}
	return out
}

func isRedactKey(key string) bool {
	switch {
	case strings.Contains(key, "password"),
		strings.Contains(key, "dsn"),
		strings.Contains(key, "secret"):
		return true
	default:
		return false
	}
}
