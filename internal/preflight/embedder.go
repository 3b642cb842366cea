package preflight

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/scoutsearch/internal/embed"
)

// CheckEmbedder probes the embedder. It is optional: the static embedder
// always works, only with lower quality.
func (c *Checker) CheckEmbedder(ctx context.Context, embedder embed.Embedder) CheckResult {
	info := embed.GetInfo(embedder)
	result := CheckResult{
		Name:     "embedder",
		Required: false,
		Details:  fmt.Sprintf("provider %s, %d dimensions", info.Provider, info.Dimensions),
	}

	if !embedder.Available(ctx) {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s not reachable", info.Model)
		return result
	}

	if info.Provider == embed.ProviderStatic {
		result.Status = StatusWarn
		result.Message = "static embeddings (offline, lower quality)"
		result.Details += "; start Ollama and pull all-minilm for semantic embeddings"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s ready", info.Model)
	return result
}
