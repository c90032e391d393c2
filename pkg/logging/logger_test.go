package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerByEnvironment(t *testing.T) {
	tests := []struct {
		env       string
		wantDebug bool
	}{
		{"production", false},
		{"prod", false},
		{"PRODUCTION", false},
		{"local", true},
		{"dev", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run("env_"+tt.env, func(t *testing.T) {
			logger, err := NewLogger(tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDebug, logger.Core().Enabled(zap.DebugLevel))
		})
	}
}
