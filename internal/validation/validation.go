// Package validation runs a data-driven relevance suite against a built
// index. Queries live in a YAML file and go through the same MCP tool
// handler clients use, so what passes here is what clients see.
//
// Tier 1 queries must pass on any embedder; they are keyword-anchored.
// Tier 2 queries describe players semantically and are expected to pass
// only with a real embedding model. Negative queries list players that
// must not be returned.
package validation

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/scoutsearch/internal/mcp"
	"github.com/Aman-CERP/scoutsearch/internal/search"
)

// Tier groups queries by how strictly they are judged.
type Tier string

const (
	Tier1    Tier = "tier1"
	Tier2    Tier = "tier2"
	Negative Tier = "negative"
)

// QuerySpec is one relevance check.
type QuerySpec struct {
	ID    string   `yaml:"id"`
	Query string   `yaml:"query"`
	Mode  string   `yaml:"mode"`
	Alpha *float64 `yaml:"alpha"`
	TopK  int      `yaml:"top_k"`
	// Expected ids must all appear within TopK. For negative queries they
	// must all be absent.
	Expected []string `yaml:"expected"`
	Notes    string   `yaml:"notes"`
	Tier     Tier     `yaml:"-"`
}

// Suite holds the queries of one YAML file.
type Suite struct {
	Tier1    []QuerySpec `yaml:"tier1"`
	Tier2    []QuerySpec `yaml:"tier2"`
	Negative []QuerySpec `yaml:"negative"`
}

// Queries returns every query with its tier set, tier 1 first.
func (s *Suite) Queries() []QuerySpec {
	var all []QuerySpec
	for _, group := range []struct {
		tier  Tier
		specs []QuerySpec
	}{{Tier1, s.Tier1}, {Tier2, s.Tier2}, {Negative, s.Negative}} {
		for _, spec := range group.specs {
			spec.Tier = group.tier
			all = append(all, spec)
		}
	}
	return all
}

// LoadSuite reads and checks a query file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read queries file %s: %w", path, err)
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse queries file %s: %w", path, err)
	}

	seen := map[string]bool{}
	for _, spec := range suite.Queries() {
		switch {
		case spec.ID == "":
			return nil, fmt.Errorf("%s: query %q has no id", path, spec.Query)
		case seen[spec.ID]:
			return nil, fmt.Errorf("%s: duplicate query id %s", path, spec.ID)
		case spec.Query == "":
			return nil, fmt.Errorf("%s: query %s is empty", path, spec.ID)
		case len(spec.Expected) == 0:
			return nil, fmt.Errorf("%s: query %s lists no players", path, spec.ID)
		}
		seen[spec.ID] = true
	}
	return &suite, nil
}

// TestResult is the outcome of one query.
type TestResult struct {
	Spec     QuerySpec     `json:"spec"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration_ns"`
	Returned []string      `json:"returned"`
	// Missing lists expected ids not returned, or for negative queries the
	// ids that were returned.
	Missing []string `json:"missing,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Result summarises a suite run.
type Result struct {
	Timestamp time.Time    `json:"timestamp"`
	Results   []TestResult `json:"results"`
	Passed    map[Tier]int `json:"passed"`
	Total     map[Tier]int `json:"total"`
}

// Failed returns the failures of tier.
func (r *Result) Failed(tier Tier) []TestResult {
	var failed []TestResult
	for _, tr := range r.Results {
		if tr.Spec.Tier == tier && !tr.Passed {
			failed = append(failed, tr)
		}
	}
	return failed
}

// OK reports whether every tier 1 and negative query passed. Tier 2
// failures are informational.
func (r *Result) OK() bool {
	return len(r.Failed(Tier1)) == 0 && len(r.Failed(Negative)) == 0
}

// Validator runs queries through an MCP server.
type Validator struct {
	server *mcp.Server
}

// NewValidator wraps searcher in an MCP server.
func NewValidator(searcher search.Searcher) (*Validator, error) {
	server, err := mcp.NewServer(searcher)
	if err != nil {
		return nil, err
	}
	return &Validator{server: server}, nil
}

// RunQuery executes one query.
func (v *Validator) RunQuery(ctx context.Context, spec QuerySpec) TestResult {
	result := TestResult{Spec: spec}

	topK := spec.TopK
	if topK <= 0 {
		topK = 5
	}
	args := map[string]any{"query": spec.Query, "top_k": topK}
	if spec.Mode != "" {
		args["search_type"] = spec.Mode
	}
	if spec.Alpha != nil {
		args["alpha"] = *spec.Alpha
	}

	start := time.Now()
	resp, err := v.server.CallTool(ctx, mcp.ToolSearchPlayers, args)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	out, ok := resp.(*mcp.SearchPlayersOutput)
	if !ok {
		result.Error = fmt.Sprintf("unexpected search response %T", resp)
		return result
	}
	for _, hit := range out.Results {
		result.Returned = append(result.Returned, hit.PlayerID)
	}

	for _, id := range spec.Expected {
		found := slices.Contains(result.Returned, id)
		if found == (spec.Tier == Negative) {
			result.Missing = append(result.Missing, id)
		}
	}
	result.Passed = len(result.Missing) == 0
	return result
}

// Run executes every query of suite in order.
func (v *Validator) Run(ctx context.Context, suite *Suite) *Result {
	result := &Result{
		Timestamp: time.Now(),
		Passed:    map[Tier]int{},
		Total:     map[Tier]int{},
	}
	for _, spec := range suite.Queries() {
		tr := v.RunQuery(ctx, spec)
		result.Results = append(result.Results, tr)
		result.Total[spec.Tier]++
		if tr.Passed {
			result.Passed[spec.Tier]++
		}
	}
	return result
}
