// Package logging provides the zap root logger and log sanitization helpers.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NewLogger builds the root logger for the given environment. Production
// environments log JSON at info level; anything else (local, dev, test) gets
// the human-readable console encoder with debug enabled.
func NewLogger(env string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if isProduction(env) {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger for env %q: %w", env, err)
	}
	return logger, nil
}

func isProduction(env string) bool {
	switch strings.ToLower(env) {
	case "production", "prod":
		return true
	}
	return false
}
