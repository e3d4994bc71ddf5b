// Package logging builds the zap logger shared by every command.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugEnv enables debug logging when set to "1"
const DebugEnv = "PROMPT_DEBUG"

// New returns a console logger writing to stderr. Only errors are logged
// unless verbose is set or PROMPT_DEBUG=1. Stdout is never written, since
// it carries the prompt itself.
func New(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.DisableStacktrace = true
	config.Sampling = nil

	config.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	if verbose || os.Getenv(DebugEnv) == "1" {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("prompt"), nil
}
