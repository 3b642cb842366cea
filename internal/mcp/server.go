package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/scoutsearch/internal/async"
	"github.com/Aman-CERP/scoutsearch/internal/embed"
	"github.com/Aman-CERP/scoutsearch/internal/search"
	"github.com/Aman-CERP/scoutsearch/internal/telemetry"
	"github.com/Aman-CERP/scoutsearch/pkg/version"
)

const serverName = "ScoutSearch"

// Server exposes the search engine to MCP clients.
type Server struct {
	mcp      *mcp.Server
	searcher search.Searcher
	embedder embed.Embedder
	provider string
	logger   *slog.Logger

	telemetry *telemetry.QueryMetrics

	defaultTopK int
	maxTopK     int

	// Background build progress, nil when the index was built up front.
	indexProgress *async.IndexProgress

	mu sync.RWMutex
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Option configures a Server.
type Option func(*Server)

// WithEmbedder reports embedder state through index_status.
func WithEmbedder(e embed.Embedder, provider string) Option {
	return func(s *Server) {
		s.embedder = e
		s.provider = provider
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTelemetry records searches and adds query analytics to index_status.
func WithTelemetry(t *telemetry.QueryMetrics) Option {
	return func(s *Server) {
		s.telemetry = t
	}
}

// WithTopKLimits sets the default and maximum top_k.
func WithTopKLimits(defaultTopK, maxTopK int) Option {
	return func(s *Server) {
		if defaultTopK > 0 {
			s.defaultTopK = defaultTopK
		}
		if maxTopK > 0 {
			s.maxTopK = maxTopK
		}
	}
}

var tools = []ToolInfo{
	{
		Name: ToolSearchPlayers,
		Description: "Find football players from a natural-language description such as " +
			"'prolific English striker' or 'creative midfielder with many assists'. " +
			"Hybrid mode blends semantic similarity with keyword matching; semantic mode uses meaning only.",
	},
	{
		Name:        ToolGetPlayer,
		Description: "Fetch the full record of a player by playerId: club history, nationality and per-season statistics.",
	},
	{
		Name:        ToolIndexStatus,
		Description: "Report whether the player index is ready, how many players it holds and which embedding model is active.",
	},
}

// NewServer creates an MCP server over searcher.
func NewServer(searcher search.Searcher, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}

	s := &Server{
		searcher:    searcher,
		logger:      slog.Default(),
		defaultTopK: search.DefaultTopK,
		maxTopK:     50,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version.Version}, nil)
	s.registerTools()
	s.registerResources()
	return s, nil
}

// SetIndexProgress attaches a background build tracker.
func (s *Server) SetIndexProgress(progress *async.IndexProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexProgress = progress
}

func (s *Server) progress() *async.IndexProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexProgress
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return serverName, version.Version
}

// ListTools returns the registered tools.
func (s *Server) ListTools() []ToolInfo {
	return append([]ToolInfo(nil), tools...)
}

// CallTool invokes a tool directly, bypassing the transport.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolSearchPlayers:
		var in SearchPlayersInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.searchPlayers(ctx, in)
		if err != nil {
			return nil, err
		}
		return out, nil
	case ToolGetPlayer:
		var in GetPlayerInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.getPlayer(ctx, in)
	case ToolIndexStatus:
		return s.indexStatus(ctx), nil
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func decodeArgs(args map[string]any, v any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(data, v); err != nil {
		return NewInvalidParamsError(err.Error())
	}
	return nil
}

// searchPlayers returns a markdown rendering and the structured result. While
// the first build runs it fails with ErrCodeIndexNotReady and the build
// progress.
func (s *Server) searchPlayers(ctx context.Context, in SearchPlayersInput) (string, *SearchPlayersOutput, error) {
	if p := s.progress(); p != nil && p.IsIndexing() && !s.searcher.Stats().Ready {
		snap := p.Snapshot()
		mapped := MapError(search.ErrNotReady)
		mapped.Message = fmt.Sprintf("Index is being built: %.1f%% (%d/%d), stage %s. Try again in a moment.",
			snap.ProgressPct, snap.Current, snap.Total, snap.Stage)
		return "", nil, mapped
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return "", nil, NewInvalidParamsError("query cannot be empty or whitespace only")
	}

	mode, err := search.ParseMode(in.SearchType)
	if err != nil {
		return "", nil, MapError(err)
	}
	topK := s.defaultTopK
	if in.TopK != nil {
		if *in.TopK <= 0 {
			return "", nil, NewInvalidParamsError(fmt.Sprintf("top_k must be a positive integer, got %d", *in.TopK))
		}
		topK = min(*in.TopK, s.maxTopK)
	}

	start := time.Now()
	requestID := uuid.NewString()[:8]
	s.logger.Info("mcp_search_started",
		slog.String("request_id", requestID),
		slog.String("query", query),
		slog.String("mode", string(mode)),
		slog.Int("top_k", topK))

	results, err := s.searcher.Search(ctx, query, search.SearchOptions{TopK: topK, Mode: mode, Alpha: in.Alpha})
	if err != nil {
		s.logger.Error("mcp_search_failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return "", nil, MapError(err)
	}

	elapsed := time.Since(start)
	s.logger.Info("mcp_search_completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", elapsed),
		slog.Int("result_count", len(results)))
	if s.telemetry != nil {
		s.telemetry.Record(telemetry.QueryEvent{
			Query: query, Mode: string(mode), ResultCount: len(results), Latency: elapsed,
		})
	}

	out := &SearchPlayersOutput{
		Query:        query,
		SearchType:   string(mode),
		TotalResults: len(results),
		Results:      make([]PlayerHit, 0, len(results)),
	}
	for _, r := range results {
		out.Results = append(out.Results, ToPlayerHit(r))
	}
	return FormatSearchResults(query, mode, results), out, nil
}

func (s *Server) getPlayer(ctx context.Context, in GetPlayerInput) (string, error) {
	id := strings.TrimSpace(in.PlayerID)
	if id == "" {
		return "", NewInvalidParamsError("player_id is required")
	}
	p, err := s.searcher.GetPlayer(ctx, id)
	if err != nil {
		return "", MapError(err)
	}
	return FormatPlayer(p)
}

func (s *Server) indexStatus(ctx context.Context) *IndexStatusOutput {
	stats := s.searcher.Stats()
	out := &IndexStatusOutput{
		Ready:          stats.Ready,
		Players:        stats.Players,
		Skipped:        stats.Skipped,
		VocabularySize: stats.VocabularySize,
		Generation:     stats.Generation,
		DefaultAlpha:   stats.DefaultAlpha,
		Embeddings:     s.embeddingInfo(ctx),
	}
	if !stats.BuiltAt.IsZero() {
		out.BuiltAt = stats.BuiltAt.Format(time.RFC3339)
	}
	if s.telemetry != nil {
		out.Queries = queryStats(s.telemetry.Snapshot(10))
	}

	if p := s.progress(); p != nil {
		snap := p.Snapshot()
		if snap.Status != string(async.StatusReady) {
			out.Indexing = &IndexingProgress{
				Status:         snap.Status,
				Stage:          snap.Stage,
				Current:        snap.Current,
				Total:          snap.Total,
				ProgressPct:    snap.ProgressPct,
				ElapsedSeconds: snap.ElapsedSeconds,
				ErrorMessage:   snap.ErrorMessage,
			}
		}
	}
	return out
}

func queryStats(snap telemetry.Snapshot) *QueryStats {
	stats := &QueryStats{
		Total:             snap.TotalQueries,
		ByMode:            snap.ModeCounts,
		ZeroResultPct:     snap.ZeroResultPercentage(),
		RepeatRate:        snap.RepeatRate(),
		TopTerms:          make([]string, 0, len(snap.TopTerms)),
		ZeroResultQueries: snap.ZeroResultQueries,
	}
	for _, tc := range snap.TopTerms {
		stats.TopTerms = append(stats.TopTerms, tc.Term)
	}
	return stats
}

func (s *Server) embeddingInfo(ctx context.Context) EmbeddingInfo {
	if s.embedder == nil {
		return EmbeddingInfo{
			Provider:         "none",
			Model:            "none",
			Status:           "unavailable",
			IsFallbackActive: true,
			SemanticQuality:  "none",
		}
	}

	info := EmbeddingInfo{
		Provider:   s.provider,
		Model:      s.embedder.ModelName(),
		Dimensions: s.embedder.Dimensions(),
		Status:     "ready",
	}
	if info.Provider == "" {
		info.Provider = "auto"
	}
	info.IsFallbackActive = info.Model == "static"
	info.SemanticQuality = "high"
	if info.IsFallbackActive {
		info.SemanticQuality = "low"
	}
	if !s.embedder.Available(ctx) {
		info.Status = "unavailable"
	}
	return info
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolSearchPlayers, Description: tools[0].Description}, s.mcpSearchPlayers)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolGetPlayer, Description: tools[1].Description}, s.mcpGetPlayer)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolIndexStatus, Description: tools[2].Description}, s.mcpIndexStatus)
	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpSearchPlayers(ctx context.Context, _ *mcp.CallToolRequest, in SearchPlayersInput) (
	*mcp.CallToolResult,
	*SearchPlayersOutput,
	error,
) {
	text, out, err := s.searchPlayers(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, out, nil
}

// mcpGetPlayer returns the record as text only: records carry free-form keys
// that a fixed output schema would reject.
func (s *Server) mcpGetPlayer(ctx context.Context, _ *mcp.CallToolRequest, in GetPlayerInput) (
	*mcp.CallToolResult,
	any,
	error,
) {
	text, err := s.getPlayer(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil, nil
}

func (s *Server) mcpIndexStatus(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	*IndexStatusOutput,
	error,
) {
	return nil, s.indexStatus(ctx), nil
}

// Serve runs the server on the given transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
