package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Aman-CERP/scoutsearch/internal/player"
	"github.com/Aman-CERP/scoutsearch/internal/search"
)

// FormatSearchResults renders results as markdown.
func FormatSearchResults(query string, mode search.Mode, results []search.RankedResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No players found for \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Players matching \"%s\"\n\n", query)
	fmt.Fprintf(&sb, "Found %d player", len(results))
	if len(results) != 1 {
		sb.WriteString("s")
	}
	fmt.Fprintf(&sb, " (%s search)\n\n", mode)

	for _, r := range results {
		formatResult(&sb, r)
	}
	return sb.String()
}

func formatResult(sb *strings.Builder, r search.RankedResult) {
	hit := ToPlayerHit(r)
	name := hit.Name
	if name == "" {
		name = "Unknown player"
	}
	fmt.Fprintf(sb, "### %d. %s (id %s)\n", hit.Rank, name, hit.PlayerID)

	var facts []string
	for _, f := range []string{hit.Position, hit.Nationality, hit.Club} {
		if f != "" {
			facts = append(facts, f)
		}
	}
	if p := r.PlayerData; p.Age != nil {
		facts = append(facts, fmt.Sprintf("age %d", *p.Age))
	}
	if len(facts) > 0 {
		sb.WriteString(strings.Join(facts, " | "))
		sb.WriteString("\n")
	}

	if p := r.PlayerData; p.CareerGoals != nil || p.CareerAssists != nil {
		fmt.Fprintf(sb, "Career: %s goals, %s assists\n", number(p.CareerGoals), number(p.CareerAssists))
	}

	if hit.ScoreKind == "distance" {
		fmt.Fprintf(sb, "Distance: %.4f (lower is closer)\n\n", hit.Score)
	} else {
		fmt.Fprintf(sb, "Score: %.4f\n\n", hit.Score)
	}
}

func number(v *float64) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprintf("%g", *v)
}

// ToPlayerHit summarises a ranked result.
func ToPlayerHit(r search.RankedResult) PlayerHit {
	p := r.PlayerData
	hit := PlayerHit{
		Rank:        r.Rank,
		PlayerID:    r.PlayerID,
		Name:        p.FullName,
		Position:    p.Position,
		Nationality: p.Nationality,
		Score:       r.Score(),
		ScoreKind:   "combined",
	}
	if p.CurrentClub != nil {
		hit.Club = p.CurrentClub.ClubName
	}
	if r.CombinedScore == nil && r.SimilarityScore != nil {
		hit.ScoreKind = "distance"
	}
	return hit
}

// FormatPlayer renders a player record as indented JSON.
func FormatPlayer(p player.Player) (string, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode player %s: %w", p.PlayerID, err)
	}
	return string(data), nil
}
