package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		env, level string
		dev, debug bool
	}{
		{env: "development", dev: true, level: "", debug: true},
		{env: "production", level: "", debug: false},
		{env: "production", level: "debug", debug: true},
		{env: "development", dev: true, level: "warn", debug: false},
		{env: "staging", level: "", debug: false},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			logger, err := New(tt.env, tt.dev, tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.debug, logger.Core().Enabled(zap.DebugLevel))
		})
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("production", false, "loud")
	assert.ErrorContains(t, err, "loud")
}
