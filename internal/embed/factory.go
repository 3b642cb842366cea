package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ProviderType represents an embedding provider
type ProviderType string

const (
	// ProviderAuto tries Ollama and falls back to the static embedder.
	ProviderAuto ProviderType = ""

	// ProviderOllama uses the Ollama API and fails when it is unavailable.
	ProviderOllama ProviderType = "ollama"

	// ProviderStatic uses hash-based embeddings.
	ProviderStatic ProviderType = "static"
)

// Config selects and configures an embedder.
type Config struct {
	Provider   ProviderType
	Model      string
	OllamaHost string
	BatchSize  int

	// CacheSize bounds the query cache; negative disables it, zero uses the default.
	CacheSize int

	Progress ProgressFunc
}

// ParseProvider converts a string to ProviderType.
func ParseProvider(s string) (ProviderType, error) {
	switch p := ProviderType(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderAuto, ProviderOllama, ProviderStatic:
		return p, nil
	case "auto":
		return ProviderAuto, nil
	default:
		return "", fmt.Errorf("unknown embedding provider %q (valid: %s)", s, strings.Join(ValidProviders(), ", "))
	}
}

// ValidProviders returns all valid provider names
func ValidProviders() []string {
	return []string{"auto", string(ProviderOllama), string(ProviderStatic)}
}

// String returns the string representation of ProviderType
func (p ProviderType) String() string {
	if p == ProviderAuto {
		return "auto"
	}
	return string(p)
}

// NewEmbedder creates the configured embedder wrapped in a query cache.
// An explicit ollama selection never falls back silently.
func NewEmbedder(ctx context.Context, cfg Config) (Embedder, error) {
	var (
		embedder Embedder
		err      error
	)

	switch cfg.Provider {
	case ProviderStatic:
		embedder = NewStaticEmbedder()
	case ProviderOllama:
		embedder, err = newOllama(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("ollama unavailable: %w", err)
		}
	case ProviderAuto:
		embedder, err = newOllama(ctx, cfg)
		if err != nil {
			slog.Warn("embedder_fallback",
				slog.String("from", string(ProviderOllama)),
				slog.String("to", string(ProviderStatic)),
				slog.String("reason", err.Error()))
			embedder = NewStaticEmbedder()
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if cfg.CacheSize < 0 {
		return embedder, nil
	}
	return NewCachedEmbedder(embedder, cfg.CacheSize), nil
}

func newOllama(ctx context.Context, cfg Config) (*OllamaEmbedder, error) {
	oc := DefaultOllamaConfig()
	if cfg.Model != "" {
		oc.Model = cfg.Model
	}
	if cfg.OllamaHost != "" {
		oc.Host = cfg.OllamaHost
	}
	if cfg.BatchSize > 0 {
		oc.BatchSize = cfg.BatchSize
	}
	oc.Progress = cfg.Progress
	return NewOllamaEmbedder(ctx, oc)
}

// Info describes an embedder for status output.
type Info struct {
	Provider   ProviderType
	Model      string
	Dimensions int
}

// GetInfo reports the provider behind an embedder, looking through the cache.
func GetInfo(embedder Embedder) Info {
	info := Info{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
	}
	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.Inner()
	}
	switch inner.(type) {
	case *OllamaEmbedder:
		info.Provider = ProviderOllama
	default:
		info.Provider = ProviderStatic
	}
	return info
}
