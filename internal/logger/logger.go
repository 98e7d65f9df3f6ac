package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base = zap.NewNop().Sugar()

// New builds a JSON production logger at the given level.
func New(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.Sugar(), nil
}

// Init installs l as the process-wide logger used by the helpers below.
func Init(l *zap.SugaredLogger) {
	base = l
	base.Infow("logger initialized")
}

func Info(msg string, fields map[string]any) {
	base.Infow(msg, flatten(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	base.Errorw(msg, flatten(fields)...)
	_ = base.Sync()
	os.Exit(1)
}

func flatten(fields map[string]any) []any {
	kv := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
