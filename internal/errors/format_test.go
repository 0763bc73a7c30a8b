package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Empty(t, FormatForCLI(nil))
	})

	t.Run("kw error with hint", func(t *testing.T) {
		err := WorkerSpawnError(2, errors.New("permission denied")).
			WithSuggestion("check that the kwsearch binary is executable")

		out := FormatForCLI(err)

		assert.Contains(t, out, "Error: failed to start worker 2")
		assert.Contains(t, out, "Cause: permission denied")
		assert.Contains(t, out, "Hint: check that the kwsearch binary is executable")
		assert.Contains(t, out, "Code: ERR_501_WORKER_SPAWN")
	})

	t.Run("plain error is wrapped as internal", func(t *testing.T) {
		out := FormatForCLI(errors.New("boom"))

		assert.Contains(t, out, "Error: boom")
		assert.NotContains(t, out, "Cause:")
		assert.Contains(t, out, ErrCodeInternal)
	})
}

func TestFormatJSON(t *testing.T) {
	err := FileAccessError("a.txt", errors.New("invalid UTF-8"))

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ErrCodeFileAccess, got["code"])
	assert.Equal(t, "IO", got["category"])
	assert.Equal(t, "WARNING", got["severity"])
	assert.Equal(t, "invalid UTF-8", got["cause"])
	assert.Equal(t, map[string]any{"path": "a.txt"}, got["details"])
}

func TestFormatForLog(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))

	attrs := FormatForLog(FileAccessError("a.txt", errors.New("eof")))
	// code, message, severity, cause, path
	assert.Len(t, attrs, 5)

	plain := FormatForLog(errors.New("x"))
	assert.Len(t, plain, 1)
}
