package logging

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. JSON output is meant for CloudWatch, console output for local tools.
func New(json bool, level zapcore.LevelEnabler) *zap.Logger {
	return NewWithSyncer(zapcore.AddSync(os.Stdout), json, level)
}

// NewWithSyncer builds a logger writing to syncer
func NewWithSyncer(syncer zapcore.WriteSyncer, json bool, level zapcore.LevelEnabler) *zap.Logger {
	var encoder zapcore.Encoder
	if json {
		encoder = jsonEncoder()
	} else {
		encoder = consoleEncoder()
	}

	core := zapcore.NewCore(encoder, syncer, level)

	// Stacktrace is included on logs of ErrorLevel and above.
	return zap.New(core, zap.AddStacktrace(zap.ErrorLevel)).With(
		zap.Int("pid", os.Getpid()),
	)
}

// LevelFromString maps a LOG_LEVEL value to a zap level
func LevelFromString(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	case "panic":
		return zapcore.PanicLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %q", level)
	}
}

func baseEncoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeDuration = zapcore.SecondsDurationEncoder
	ec.TimeKey = "time"
	return ec
}

func jsonEncoder() zapcore.Encoder {
	ec := baseEncoderConfig()
	ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendInt64(int64(math.Trunc(float64(t.UnixNano()) / float64(time.Millisecond))))
	}
	return zapcore.NewJSONEncoder(ec)
}

func consoleEncoder() zapcore.Encoder {
	ec := baseEncoderConfig()
	ec.ConsoleSeparator = " "
	ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05 PM")
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}
