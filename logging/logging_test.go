package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONToFile(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	path := filepath.Join(t.TempDir(), "ledger.log")

	logger, err := Setup(Config{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)
	logger.Info().Msg("dropped")
	logger.Warn().Str("month", "2025-03").Msg("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"month":"2025-03"`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestSetup_BadLevel(t *testing.T) {
	_, err := Setup(Config{Level: "loud"})
	assert.Error(t, err)
}
