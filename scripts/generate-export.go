//go:build ignore

// Package main generates a synthetic raw data export for benchmarking.
// Usage: go run scripts/generate-export.go -players 5000 -output testdata/bench
//
// The output directory holds clubs.json, nationalities.json, players.json and
// player_season_stats.json, ready for 'scoutsearch enrich'.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numPlayers = flag.Int("players", 5000, "Number of players to generate")
	numClubs   = flag.Int("clubs", 80, "Number of clubs to generate")
	seasons    = flag.Int("seasons", 5, "Maximum seasons per player")
	outputDir  = flag.String("output", "testdata/bench", "Output directory")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var (
	firstNames = []string{"Adam", "Bruno", "Carlos", "Dani", "Emil", "Felix", "Gabriel", "Hugo", "Ivan", "Jonas",
		"Kai", "Luca", "Marco", "Nico", "Oscar", "Pablo", "Rafael", "Sami", "Theo", "Yusuf"}
	lastNames = []string{"Almeida", "Berg", "Costa", "Diallo", "Eriksen", "Fischer", "Garcia", "Hansen", "Ito",
		"Jovanovic", "Kovac", "Lopez", "Moreau", "Nowak", "Okafor", "Petrov", "Rossi", "Silva", "Tanaka", "Weber"}
	clubWords = []string{"Athletic", "City", "Rovers", "United", "Wanderers", "Albion", "Town", "Sporting"}
	places    = []string{"Harbour", "Northgate", "Riverside", "Eastfield", "Kingsbridge", "Westmoor", "Lakeview",
		"Redhill", "Stonebridge", "Millbrook"}
	positions = []string{"Goalkeeper", "Defender", "Midfielder", "Forward"}
	feet      = []string{"Right", "Left", "Both"}

	countries = []struct{ iso, name string }{
		{"ENG", "England"}, {"ESP", "Spain"}, {"FRA", "France"}, {"GER", "Germany"}, {"ITA", "Italy"},
		{"POR", "Portugal"}, {"NED", "Netherlands"}, {"BRA", "Brazil"}, {"ARG", "Argentina"}, {"NGA", "Nigeria"},
		{"JPN", "Japan"}, {"SRB", "Serbia"},
	}
)

// profile biases the per-appearance rates by position.
type profile struct {
	goals, assists, tackles, dribbles, crosses float64
}

var profiles = map[string]profile{
	"Goalkeeper": {0, 0.01, 0.1, 0, 0},
	"Defender":   {0.04, 0.06, 2.5, 0.4, 0.8},
	"Midfielder": {0.15, 0.25, 1.8, 1.2, 1.5},
	"Forward":    {0.5, 0.2, 0.5, 2.0, 1.0},
}

func main() {
	flag.Parse()
	rand.Seed(*seed)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d players across %d clubs in %s...\n", *numPlayers, *numClubs, *outputDir)

	clubs := make([]map[string]any, 0, *numClubs)
	for i := 0; i < *numClubs; i++ {
		clubs = append(clubs, map[string]any{
			"clubId":   1000 + i,
			"clubName": fmt.Sprintf("%s %s", randomWord(places), randomWord(clubWords)),
		})
	}

	nationalities := make([]map[string]any, 0, len(countries))
	for _, c := range countries {
		nationalities = append(nationalities, map[string]any{"countryId": c.iso, "name": c.name})
	}

	players := make([]map[string]any, 0, *numPlayers)
	var stats []map[string]any
	for i := 0; i < *numPlayers; i++ {
		p, s := generatePlayer(i)
		players = append(players, p)
		stats = append(stats, s...)
	}

	files := map[string]any{
		"clubs.json":               clubs,
		"nationalities.json":       nationalities,
		"players.json":             players,
		"player_season_stats.json": stats,
	}
	for name, v := range files {
		if err := writeJSON(filepath.Join(*outputDir, name), v); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", name, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generated %d players and %d season records.\n", len(players), len(stats))
}

func randomWord(pool []string) string {
	return pool[rand.Intn(len(pool))]
}

func generatePlayer(index int) (map[string]any, []map[string]any) {
	id := 1 + index
	country := countries[rand.Intn(len(countries))]
	position := randomWord(positions)

	p := map[string]any{
		"playerId":       id,
		"fullName":       fmt.Sprintf("%s %s", randomWord(firstNames), randomWord(lastNames)),
		"nationalityISO": country.iso,
		"nationality":    country.name,
		"position":       position,
		"preferredFoot":  randomWord(feet),
		"dateOfBirth":    fmt.Sprintf("%d-%02d-%02d", 1988+rand.Intn(19), 1+rand.Intn(12), 1+rand.Intn(28)),
		// Exported numbers are sometimes strings.
		"heightCm": fmt.Sprintf("%d", 165+rand.Intn(35)),
		"weightKg": 60 + rand.Intn(35),
	}

	// A few players have no season data at all.
	if rand.Intn(20) == 0 {
		return p, nil
	}

	rates := profiles[position]
	club := 1000 + rand.Intn(*numClubs)
	n := 1 + rand.Intn(*seasons)
	out := make([]map[string]any, 0, n)
	for s := 0; s < n; s++ {
		if rand.Intn(4) == 0 {
			club = 1000 + rand.Intn(*numClubs)
		}
		apps := float64(5 + rand.Intn(34))
		out = append(out, map[string]any{
			"playerId":          id,
			"clubId":            club,
			"seasonId":          2025 - n + s + 1,
			"appearances":       apps,
			"minutesPlayed":     apps * float64(45+rand.Intn(45)),
			"goals":             scaled(apps, rates.goals),
			"assists":           scaled(apps, rates.assists),
			"tackles":           scaled(apps, rates.tackles),
			"dribblesCompleted": scaled(apps, rates.dribbles),
			"crossesCompleted":  scaled(apps, rates.crosses),
			"yellowCards":       float64(rand.Intn(8)),
			"redCards":          float64(rand.Intn(2)),
		})
	}
	return p, out
}

// scaled draws a count around apps*rate.
func scaled(apps, rate float64) float64 {
	return float64(int(apps * rate * (0.5 + rand.Float64())))
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
