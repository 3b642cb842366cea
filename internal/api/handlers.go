package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Aman-CERP/scoutsearch/internal/search"
	"github.com/Aman-CERP/scoutsearch/internal/telemetry"
)

type rootResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

type healthResponse struct {
	Status            string `json:"status"`
	SearchEngineReady bool   `json:"search_engine_ready"`
	TotalPlayers      int    `json:"total_players"`
}

type searchRequest struct {
	Query      string   `json:"query"`
	TopK       *int     `json:"top_k"`
	SearchType string   `json:"search_type"`
	Alpha      *float64 `json:"alpha"`
}

type searchResponse struct {
	Query        string                `json:"query"`
	SearchType   search.Mode           `json:"search_type"`
	TotalResults int                   `json:"total_results"`
	Results      []search.RankedResult `json:"results"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	status := "initializing"
	if s.searcher.Stats().Ready {
		status = "running"
	}
	endpoints := []string{"GET /", "GET /health", "POST /search", "GET /player/{id}", "GET /player/{id}/profile"}
	if s.metrics != nil {
		endpoints = append(endpoints, "GET /metrics")
	}
	if s.telemetry != nil {
		endpoints = append(endpoints, "GET /stats")
	}
	writeJSON(w, http.StatusOK, rootResponse{
		Name:      "Football Player Semantic Search",
		Version:   s.version,
		Status:    status,
		Endpoints: endpoints,
	})
}

// handleHealth always answers 200; readiness is in the body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.searcher.Stats()
	status := "starting"
	if stats.Ready {
		status = "healthy"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:            status,
		SearchEngineReady: stats.Ready,
		TotalPlayers:      stats.Players,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	mode := s.defaultMode
	if req.SearchType != "" {
		if mode, err = search.ParseMode(req.SearchType); err != nil {
			s.writeSearchError(w, r, err)
			return
		}
	}

	topK := s.defaultTopK
	if req.TopK != nil {
		topK = min(*req.TopK, s.maxTopK)
	}

	start := time.Now()
	results, err := s.searcher.Search(r.Context(), req.Query, search.SearchOptions{
		TopK:  topK,
		Mode:  mode,
		Alpha: req.Alpha,
	})
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}
	if results == nil {
		results = []search.RankedResult{}
	}
	if s.telemetry != nil {
		s.telemetry.Record(telemetry.QueryEvent{
			Query:       req.Query,
			Mode:        string(mode),
			ResultCount: len(results),
			Latency:     time.Since(start),
		})
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:        req.Query,
		SearchType:   mode,
		TotalResults: len(results),
		Results:      results,
	})
}

// topTermsReported bounds the term list of GET /stats.
const topTermsReported = 20

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.telemetry.Snapshot(topTermsReported))
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	p, err := s.searcher.GetPlayer(r.Context(), id)
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type profileResponse struct {
	PlayerID string `json:"player_id"`
	Profile  string `json:"profile"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	text, err := s.searcher.Profile(r.Context(), id)
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{PlayerID: id, Profile: text})
}

func decodeSearchRequest(w http.ResponseWriter, r *http.Request) (searchRequest, error) {
	var req searchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, errors.New("request body is empty")
		}
		return req, errors.New("request body is not valid JSON: " + err.Error())
	}
	return req, nil
}
