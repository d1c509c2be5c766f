package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
}

// NewLogger builds a logger at the given level. Diagnostics go to stderr so
// command output on stdout stays parseable.
func NewLogger(level string) (*Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{logger}, nil
}

// NewNop returns a logger that discards everything. Used by tests and as the
// default until configuration is loaded.
func NewNop() *Logger {
	return &Logger{zap.NewNop()}
}

// WithOperationID tags every entry with the id of the current CLI invocation.
func (l *Logger) WithOperationID(id string) *Logger {
	return &Logger{l.With(zap.String("operation_id", id))}
}
