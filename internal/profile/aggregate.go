// Package profile turns an enriched player record into the natural-language
// profile text indexed by both the dense and the lexical index.
package profile

import "github.com/Aman-CERP/scoutsearch/internal/player"

// CareerAggregate sums the tracked statistics over a player's valid seasons.
// A season is valid when at least one tracked statistic is non-null; only
// valid seasons contribute, and null values add nothing.
type CareerAggregate struct {
	Totals       [player.NumStats]float64
	ValidSeasons int

	// Seasons is the number of season records seen, valid or not.
	Seasons int
}

// Aggregate computes the career aggregate of a season list.
func Aggregate(seasons []player.SeasonStats) CareerAggregate {
	agg := CareerAggregate{Seasons: len(seasons)}
	for i := range seasons {
		if !seasons[i].HasData() {
			continue
		}
		agg.ValidSeasons++
		for stat, v := range seasons[i].Values() {
			if v != nil {
				agg.Totals[stat] += *v
			}
		}
	}
	return agg
}

// Total returns the summed value of one statistic.
func (a CareerAggregate) Total(stat player.Stat) float64 {
	if stat < 0 || int(stat) >= player.NumStats {
		return 0
	}
	return a.Totals[stat]
}

// PerAppearance returns total/appearances, or 0 without appearances.
func (a CareerAggregate) PerAppearance(stat player.Stat) float64 {
	apps := a.Total(player.StatAppearances)
	if apps == 0 {
		return 0
	}
	return a.Total(stat) / apps
}
