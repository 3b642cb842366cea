package mcp

// Tool names.
const (
	ToolSearchPlayers = "search_players"
	ToolGetPlayer     = "get_player"
	ToolIndexStatus   = "index_status"
)

// SearchPlayersInput is the search_players argument schema.
type SearchPlayersInput struct {
	Query      string   `json:"query" jsonschema:"free-text description of the players to find, e.g. 'left-footed Brazilian winger'"`
	TopK       *int     `json:"top_k,omitempty" jsonschema:"maximum number of results, a positive integer, default 10"`
	SearchType string   `json:"search_type,omitempty" jsonschema:"hybrid (default) or semantic"`
	Alpha      *float64 `json:"alpha,omitempty" jsonschema:"hybrid only: weight of semantic similarity in [0, 1], default 0.7"`
}

// SearchPlayersOutput is the structured search_players result.
type SearchPlayersOutput struct {
	Query        string      `json:"query"`
	SearchType   string      `json:"search_type"`
	TotalResults int         `json:"total_results"`
	Results      []PlayerHit `json:"results"`
}

// PlayerHit summarises one ranked player.
type PlayerHit struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"player_id"`
	Name        string  `json:"name"`
	Position    string  `json:"position,omitempty"`
	Nationality string  `json:"nationality,omitempty"`
	Club        string  `json:"club,omitempty"`
	Score       float64 `json:"score" jsonschema:"combined score (higher is better) or semantic distance (lower is better)"`
	ScoreKind   string  `json:"score_kind" jsonschema:"combined or distance"`
}

// GetPlayerInput is the get_player argument schema.
type GetPlayerInput struct {
	PlayerID string `json:"player_id" jsonschema:"the playerId from a search result"`
}

// IndexStatusInput takes no arguments.
type IndexStatusInput struct{}

// IndexStatusOutput is the structured index_status result.
type IndexStatusOutput struct {
	Ready          bool              `json:"ready"`
	Players        int               `json:"players"`
	Skipped        int               `json:"skipped"`
	VocabularySize int               `json:"vocabulary_size"`
	Generation     uint64            `json:"generation"`
	BuiltAt        string            `json:"built_at,omitempty"`
	DefaultAlpha   float64           `json:"default_alpha"`
	Embeddings     EmbeddingInfo     `json:"embeddings"`
	Indexing       *IndexingProgress `json:"indexing,omitempty"`
	// Queries is present when query telemetry is enabled.
	Queries *QueryStats `json:"queries,omitempty"`
}

// QueryStats summarises searches since the server started.
type QueryStats struct {
	Total             int64            `json:"total"`
	ByMode            map[string]int64 `json:"by_mode"`
	ZeroResultPct     float64          `json:"zero_result_pct"`
	RepeatRate        float64          `json:"repeat_rate"`
	TopTerms          []string         `json:"top_terms"`
	ZeroResultQueries []string         `json:"zero_result_queries" jsonschema:"recent queries that returned nothing, oldest first"`
}

// EmbeddingInfo describes the active embedder so clients can judge semantic
// quality.
type EmbeddingInfo struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	Dimensions       int    `json:"dimensions"`
	Status           string `json:"status"`
	IsFallbackActive bool   `json:"is_fallback_active"`
	SemanticQuality  string `json:"semantic_quality"`
}

// IndexingProgress is present while a build runs or after one failed.
type IndexingProgress struct {
	Status         string  `json:"status"`
	Stage          string  `json:"stage,omitempty"`
	Current        int     `json:"current"`
	Total          int     `json:"total"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}
