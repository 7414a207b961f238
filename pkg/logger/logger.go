package logger

import (
	"go.uber.org/zap"
)

// Logger is the side-channel the core reports through. It never affects
// control flow: callers log and move on.
type Logger struct {
	zl *zap.Logger
}

// New builds a production logger, or a human-readable development one when
// env is "development".
func New(env string) (*Logger, error) {
	var zl *zap.Logger
	var err error
	if env == "development" {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &Logger{zl: zl}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Error records an operation failure with its name and input payload.
func (l *Logger) Error(path string, data map[string]any) {
	l.zl.Error(path, zap.Any("data", data))
}

// Analytic records a business-metric event.
func (l *Logger) Analytic(text string) {
	l.zl.Info(text, zap.String("channel", "analytic"))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.zl.Sync()
}
