package profile

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/scoutsearch/internal/player"
)

// Summary texts for degenerate inputs.
const (
	NoPerformanceData      = "No performance data available"
	LimitedPerformanceData = "Limited performance data"
	LimitedStatistical     = "limited statistical"
)

// Summary renders the performance summary of an aggregate: a ". "-joined
// list of clauses for the non-zero totals.
func Summary(a CareerAggregate) string {
	if a.Seasons == 0 {
		return NoPerformanceData
	}
	if a.ValidSeasons == 0 {
		return LimitedPerformanceData
	}

	var parts []string
	count := func(stat player.Stat, format string) {
		if v := a.Total(stat); v > 0 {
			parts = append(parts, fmt.Sprintf(format, int64(v)))
		}
	}

	count(player.StatAppearances, "Career: %d appearances")
	count(player.StatGoals, "%d total goals")
	count(player.StatAssists, "%d total assists")
	if v := a.Total(player.StatMinutesPlayed); v > 0 {
		parts = append(parts, formatNumber(v)+" minutes played")
	}

	seasons := float64(a.ValidSeasons)
	if avg := a.Total(player.StatGoals) / seasons; avg > 5 {
		parts = append(parts, fmt.Sprintf("averages %.1f goals per season", avg))
	}
	if avg := a.Total(player.StatAssists) / seasons; avg > 3 {
		parts = append(parts, fmt.Sprintf("%.1f assists per season", avg))
	}

	count(player.StatTackles, "%d career tackles")
	count(player.StatInterceptions, "%d interceptions")
	count(player.StatDribblesCompleted, "%d successful dribbles")
	count(player.StatCrossesCompleted, "%d accurate crosses")

	if a.Total(player.StatTouchesInBox) > 0 && a.PerAppearance(player.StatTouchesInBox) > 10 {
		parts = append(parts, "active in penalty area")
	}

	count(player.StatYellowCards, "%d career yellow cards")
	count(player.StatRedCards, "%d red cards")

	if len(parts) == 0 {
		return LimitedStatistical
	}
	return strings.Join(parts, ". ")
}
