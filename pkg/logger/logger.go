package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"greencart/pkg/errors"
)

var globalLogger *Logger

// Logger wraps zap.SugaredLogger and forwards errors to the configured tracker
type Logger struct {
	*zap.SugaredLogger
	errorTracker errors.Tracker
}

// Init initializes the global logger. Production uses JSON, everything else
// the colored console encoder. Output goes to stderr so that stdout stays
// free for command output such as the deploy report.
func Init(level string, env string) error {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.OutputPaths = []string{"stderr"}
	config.InitialFields = map[string]interface{}{"env": env}

	logger, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}

	var tracker errors.Tracker
	if globalLogger != nil {
		tracker = globalLogger.errorTracker
	}
	globalLogger = &Logger{SugaredLogger: logger.Sugar(), errorTracker: tracker}
	return nil
}

// SetErrorTracker attaches tracker to the global logger. Loggers derived
// afterwards with With inherit it.
func SetErrorTracker(tracker errors.Tracker) {
	Get().errorTracker = tracker
}

// Get returns the global logger, falling back to a development logger
// when Init has not run
func Get() *Logger {
	if globalLogger == nil {
		logger, _ := zap.NewDevelopment()
		globalLogger = &Logger{SugaredLogger: logger.Sugar()}
	}
	return globalLogger
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// With creates a child logger with additional fields
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		errorTracker:  l.errorTracker,
	}
}

// FromContext adds the authenticated user, if any, to the log fields
func (l *Logger) FromContext(ctx context.Context) *Logger {
	if id, ok := errors.UserIDFromContext(ctx); ok {
		return l.With("user_id", id)
	}
	return l
}

// Errorf logs a formatted error and reports it to the tracker
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.SugaredLogger.Errorf(template, args...)
	l.capture(context.Background(), fmt.Errorf(template, args...), nil)
}

// Errorw logs msg with key-value pairs. When one of the values is an error it
// is reported to the tracker as well.
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues...)
	for i := 1; i < len(keysAndValues); i += 2 {
		if err, ok := keysAndValues[i].(error); ok {
			l.capture(context.Background(), errors.Wrap(err, msg), nil)
			return
		}
	}
}

// ErrorWithContext logs err with tags and the request's user, then reports it
func (l *Logger) ErrorWithContext(ctx context.Context, err error, tags map[string]string) {
	l.FromContext(ctx).SugaredLogger.Errorw(err.Error(), "tags", tags)
	l.capture(ctx, err, tags)
}

func (l *Logger) capture(ctx context.Context, err error, tags map[string]string) {
	if l.errorTracker == nil {
		return
	}
	if tags == nil {
		tags = map[string]string{"component": "logger"}
	}
	_ = l.errorTracker.CaptureError(ctx, err, tags)
}

// Sync flushes any buffered log entries
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
