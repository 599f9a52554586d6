package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Levels(t *testing.T) {
	cases := []struct {
		level   string
		verbose bool
		want    zapcore.Level
	}{
		{"", false, zapcore.InfoLevel},
		{"warn", false, zapcore.WarnLevel},
		{"warn", true, zapcore.DebugLevel},
		{"debug", false, zapcore.DebugLevel},
		{"ERROR", false, zapcore.ErrorLevel},
	}
	for _, tc := range cases {
		logger, err := NewLogger(tc.level, tc.verbose)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tc.want), "level %q verbose %v", tc.level, tc.verbose)
		if tc.want > zapcore.DebugLevel {
			assert.False(t, logger.Core().Enabled(tc.want-1))
		}
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger("loud", false)
	require.Error(t, err)
}

func TestNewConfig_WritesToStderr(t *testing.T) {
	cfg := NewConfig(zapcore.InfoLevel)
	assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
	assert.True(t, cfg.DisableStacktrace)
}
