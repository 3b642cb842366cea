package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/search"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		contains string
	}{
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout, "timed out"},
		{"canceled", fmt.Errorf("wrapped: %w", context.Canceled), ErrCodeTimeout, "canceled"},
		{"not ready", search.ErrNotReady, ErrCodeIndexNotReady, "scoutsearch index"},
		{"player not found", serrors.New(serrors.ErrCodePlayerNotFound, "player 9 not found", nil), ErrCodeNotFound, "player 9"},
		{"embedding failed", serrors.New(serrors.ErrCodeEmbeddingFailed, "ollama down", nil), ErrCodeEmbeddingFailed, "ollama down"},
		{"invalid mode", serrors.New(serrors.ErrCodeInvalidMode, "bad mode", nil), ErrCodeInvalidParams, "bad mode"},
		{"network", serrors.New(serrors.ErrCodeNetworkTimeout, "slow", nil), ErrCodeTimeout, "slow"},
		{"internal", serrors.New(serrors.ErrCodeIndexFailed, "broken", nil), ErrCodeInternalError, "broken"},
		{"plain error", errors.New("boom"), ErrCodeInternalError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)

			assert.Equal(t, tt.wantCode, got.Code)
			assert.Contains(t, got.Message, tt.contains)
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMCPError_Error(t *testing.T) {
	err := NewInvalidParamsError("query is required")

	assert.Equal(t, "MCP error -32602: query is required", err.Error())
	assert.Equal(t, ErrCodeMethodNotFound, NewMethodNotFoundError("x").Code)
	assert.Contains(t, NewMethodNotFoundError("x").Message, "'x'")
}
