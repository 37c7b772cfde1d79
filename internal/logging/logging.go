// Package logging builds the process logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a console logger when development is set and a JSON logger
// otherwise. Output goes to stderr so stdout stays free for the MCP console
// transport. Every entry carries environment as the env field.
func New(environment string, development bool, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.With(zap.String("env", environment)), nil
}
