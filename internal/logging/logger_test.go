package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level)
		require.NoError(t, err, "level=%s", level)
		require.NotNil(t, logger)
		assert.NoError(t, logger.Sync())
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("not-a-level")
	require.Error(t, err)
}
