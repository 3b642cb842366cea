package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	// Given: an error with suggestion
	err := New(ErrCodeNetworkUnavailable, "Ollama is not running", nil).
		WithSuggestion("Start Ollama with 'ollama serve' or pass --offline")

	// When: formatting for CLI
	out := FormatForCLI(err)

	// Then: message, hint and code are present
	assert.Contains(t, out, "Error: Ollama is not running")
	assert.Contains(t, out, "Hint: Start Ollama")
	assert.Contains(t, out, "Code: ERR_302_NETWORK_UNAVAILABLE")
}

func TestFormatForCLI_WrapsPlainErrors(t *testing.T) {
	out := FormatForCLI(errors.New("boom"))

	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, ErrCodeInternal)
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatForLog_Fields(t *testing.T) {
	cause := errors.New("disk")
	err := New(ErrCodeCatalogFailed, "write failed", cause).WithDetail("path", "/tmp/x.db")

	fields := FormatForLog(err)

	assert.Equal(t, ErrCodeCatalogFailed, fields["error_code"])
	assert.Equal(t, "IO", fields["category"])
	assert.Equal(t, "disk", fields["cause"])
	assert.Equal(t, "/tmp/x.db", fields["detail_path"])
	assert.Equal(t, map[string]any{"error": "plain"}, FormatForLog(errors.New("plain")))
}
