package logger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

var (
	mu      sync.RWMutex
	logger  Logger
	sLogger *slog.Logger
)

type PrintfLogger interface {
	Printf(string, ...any)
}

type Logger interface {
	PrintfLogger
	Debug(msg string, fields ...interface{})
	Debugf(msg string, args ...interface{})
	Info(msg string, fields ...interface{})
	Infof(msg string, args ...interface{})
	Warn(msg string, fields ...interface{})
	Warnf(msg string, args ...interface{})
	Error(msg string, fields ...interface{})
	Errorf(msg string, args ...interface{})
	Fatal(msg string, fields ...interface{})
	Fatalf(msg string, args ...interface{})
	Logf(msg string, args ...interface{})
	Sync() error
}

type SLogger interface {
	DebugContext(ctx context.Context, msg string, fields ...interface{})
	InfoContext(ctx context.Context, msg string, fields ...interface{})
	WarnContext(ctx context.Context, msg string, fields ...interface{})
	ErrorContext(ctx context.Context, msg string, fields ...interface{})
}

type ZapLogger struct {
	Logger       *zap.Logger
	loggerConfig zap.Config
}

type optionFunc func(*ZapLogger)

// InitLogger builds the process-wide logger. Calling it again replaces the
// previous logger, so the CLI can re-initialise once flags are parsed.
func InitLogger(opts ...optionFunc) error {
	zapLogger, err := NewZapLogger(opts...)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = zapLogger
	sLogger = nil
	mu.Unlock()
	return nil
}

// NewZapLogger builds a zap logger writing to stderr. CLI output owns stdout.
func NewZapLogger(opts ...optionFunc) (*ZapLogger, error) {
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.OutputPaths = []string{"stderr"}
	loggerConfig.ErrorOutputPaths = []string{"stderr"}
	loggerZap := &ZapLogger{loggerConfig: loggerConfig}
	for _, opt := range opts {
		opt(loggerZap)
	}
	var err error
	loggerZap.Logger, err = loggerZap.loggerConfig.Build()
	if err != nil {
		return nil, err
	}
	return loggerZap, nil
}

type LevelAdapter struct {
	ZapLevel zapcore.Level
}

func (l LevelAdapter) Level() slog.Level {
	switch l.ZapLevel {
	case zapcore.DebugLevel:
		return slog.LevelDebug
	case zapcore.InfoLevel:
		return slog.LevelInfo
	case zapcore.WarnLevel:
		return slog.LevelWarn
	case zapcore.ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type OptSLogger struct {
	AttrFromCtx []func(ctx context.Context) []slog.Attr
	ZapLevel    zapcore.Level
}

func NewSLoggerFromZap(zapLogger *zap.Logger, opts *OptSLogger) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if sLogger != nil {
		return sLogger
	}
	if opts == nil {
		opts = &OptSLogger{ZapLevel: zapcore.InfoLevel}
	}
	sLogger = slog.New(slogzap.Option{Logger: zapLogger, Level: LevelAdapter{ZapLevel: opts.ZapLevel}, AttrFromContext: opts.AttrFromCtx}.NewZapHandler())
	return sLogger
}

func getSLogger() *slog.Logger {
	mu.RLock()
	s := sLogger
	mu.RUnlock()
	if s != nil {
		return s
	}
	zl, ok := get().(*ZapLogger)
	if !ok {
		return slog.Default()
	}
	return NewSLoggerFromZap(zl.Logger, &OptSLogger{ZapLevel: zl.loggerConfig.Level.Level()})
}

func DebugContext(ctx context.Context, msg string, fields ...interface{}) {
	getSLogger().DebugContext(ctx, msg, fields...)
}

func InfoContext(ctx context.Context, msg string, fields ...interface{}) {
	getSLogger().InfoContext(ctx, msg, fields...)
}

func WarnContext(ctx context.Context, msg string, fields ...interface{}) {
	getSLogger().WarnContext(ctx, msg, fields...)
}

func ErrorContext(ctx context.Context, msg string, fields ...interface{}) {
	getSLogger().ErrorContext(ctx, msg, fields...)
}

func NewZapLoggerForTest(t *testing.T) Logger {
	return &ZapLogger{
		Logger:       zaptest.NewLogger(t),
		loggerConfig: zap.NewDevelopmentConfig(),
	}
}

// SetLogger swaps the process-wide logger; tests use it with NewZapLoggerForTest.
func SetLogger(l Logger) {
	mu.Lock()
	logger = l
	sLogger = nil
	mu.Unlock()
}

func WithLevel(level zapcore.Level) optionFunc {
	return func(zl *ZapLogger) {
		zl.loggerConfig.Level = zap.NewAtomicLevelAt(level)
	}
}

func WithEncodeTime(timeKey string, timeEncoder zapcore.TimeEncoder) optionFunc {
	return func(zl *ZapLogger) {
		zl.loggerConfig.EncoderConfig.TimeKey = timeKey
		zl.loggerConfig.EncoderConfig.EncodeTime = timeEncoder
	}
}

// WithConsoleEncoding switches to zap's human readable encoder.
func WithConsoleEncoding() optionFunc {
	return func(zl *ZapLogger) {
		zl.loggerConfig.Encoding = "console"
		zl.loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
}

func WithOutputPaths(paths ...string) optionFunc {
	return func(zl *ZapLogger) {
		zl.loggerConfig.OutputPaths = paths
	}
}

// get falls back to a no-op logger so library code never panics when the
// binary has not initialised logging.
func get() Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		return &ZapLogger{Logger: zap.NewNop(), loggerConfig: zap.NewProductionConfig()}
	}
	return l
}

func GetLogger() Logger {
	return get()
}

func GetSLogger() SLogger {
	return getSLogger()
}

func Debug(msg string, fields ...interface{}) {
	get().Debug(msg, fields...)
}

func Debugf(msg string, fields ...interface{}) {
	get().Debugf(msg, fields...)
}

func Info(msg string, fields ...interface{}) {
	get().Info(msg, fields...)
}

func Infof(msg string, fields ...interface{}) {
	get().Infof(msg, fields...)
}

func Warn(msg string, fields ...interface{}) {
	get().Warn(msg, fields...)
}

func Warnf(msg string, fields ...interface{}) {
	get().Warnf(msg, fields...)
}

func Error(msg string, fields ...interface{}) {
	get().Error(msg, fields...)
}

func Errorf(msg string, fields ...interface{}) {
	get().Errorf(msg, fields...)
}

func Fatal(msg string, fields ...interface{}) {
	get().Fatal(msg, fields...)
}

func Fatalf(msg string, fields ...interface{}) {
	get().Fatalf(msg, fields...)
}

func Sync() error {
	return get().Sync()
}

func (l *ZapLogger) Debug(msg string, fields ...interface{}) {
	l.Logger.Sugar().Debugw(msg, fields...)
}

func (l *ZapLogger) Debugf(msg string, args ...interface{}) {
	l.Logger.Sugar().Debugf(msg, args...)
}

func (l *ZapLogger) Info(msg string, fields ...interface{}) {
	l.Logger.Sugar().Infow(msg, fields...)
}

func (l *ZapLogger) Infof(msg string, args ...interface{}) {
	l.Logger.Sugar().Infof(msg, args...)
}

func (l *ZapLogger) Warn(msg string, fields ...interface{}) {
	l.Logger.Sugar().Warnw(msg, fields...)
}

func (l *ZapLogger) Warnf(msg string, args ...interface{}) {
	l.Logger.Sugar().Warnf(msg, args...)
}

func (l *ZapLogger) Error(msg string, fields ...interface{}) {
	l.Logger.Sugar().Errorw(msg, fields...)
}

func (l *ZapLogger) Errorf(msg string, fields ...interface{}) {
	l.Logger.Sugar().Errorf(msg, fields...)
}

func (l *ZapLogger) Fatal(msg string, fields ...interface{}) {
	l.Logger.Sugar().Fatalw(msg, fields...)
}

func (l *ZapLogger) Fatalf(msg string, fields ...interface{}) {
	l.Logger.Sugar().Fatalf(msg, fields...)
}

func (l *ZapLogger) Printf(msg string, args ...interface{}) {
	l.Logger.Sugar().Infof(msg, args...)
}

func (l *ZapLogger) Logf(msg string, args ...interface{}) {
	l.Logger.Sugar().Infof(msg, args...)
}

func (l *ZapLogger) Sync() error {
	return l.Logger.Sync()
}

// NewLogger builds a logger from the config's logger type and level.
func NewLogger(loggerType string, loggerLevel string) (Logger, error) {
	switch loggerType {
	case "zap", "":
		zapLevel, err := zapcore.ParseLevel(loggerLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to parse logger level: %v", err)
		}
		return NewZapLogger(WithLevel(zapLevel), WithEncodeTime("timestamp", zapcore.ISO8601TimeEncoder))
	case "console":
		zapLevel, err := zapcore.ParseLevel(loggerLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to parse logger level: %v", err)
		}
		return NewZapLogger(WithLevel(zapLevel), WithConsoleEncoding(), WithEncodeTime("timestamp", zapcore.ISO8601TimeEncoder))
	default:
		return nil, fmt.Errorf("unsupported logger type: %s", loggerType)
	}
}
