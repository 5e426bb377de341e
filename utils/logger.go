package utils

import (
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// CriticalLogPath receives uncaught failures of the run loop
const CriticalLogPath = "critical.log"

// rotateScheme marks zap output paths written through a rotating file, e.g. "rotate:dexarb.log"
const rotateScheme = "rotate"

var (
	log  *zap.Logger
	once sync.Once

	sinkOnce sync.Once
	sinkErr  error
)

type rotatingFile struct {
	*lumberjack.Logger
}

func (rotatingFile) Sync() error { return nil }

func newRotatingSink(u *url.URL) (zap.Sink, error) {
	path := u.Opaque
	if path == "" {
		path = u.Path
	}
	if path == "" {
		return nil, fmt.Errorf("rotate sink needs a file path: %s", u)
	}
	return rotatingFile{&lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // megabytes
		MaxBackups: 14,
		MaxAge:     14, // days
		Compress:   true,
	}}, nil
}

func registerRotatingSink() error {
	sinkOnce.Do(func() {
		sinkErr = zap.RegisterSink(rotateScheme, newRotatingSink)
	})
	return sinkErr
}

// InitLogger initializes the global logger instance
func InitLogger(debug bool) *zap.Logger {
	once.Do(func() {
		config := zap.NewProductionConfig()
		if debug {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}

		if err := registerRotatingSink(); err != nil {
			panic(err)
		}
		config.OutputPaths = []string{"stdout", rotateScheme + ":dexarb.log"}
		config.ErrorOutputPaths = []string{"stderr", rotateScheme + ":dexarb-error.log"}

		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.EncoderConfig.StacktraceKey = "stacktrace"

		logger, err := config.Build(
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		)
		if err != nil {
			panic(err)
		}

		log = logger
	})

	return log
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if log == nil {
		return InitLogger(false)
	}
	return log
}

// NewCriticalLogger appends error entries with full stack traces to path
func NewCriticalLogger(path string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	config.Sampling = nil
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// CleanupLogger flushes any buffered log entries
func CleanupLogger() {
	if log != nil {
		_ = log.Sync()
	}
}
