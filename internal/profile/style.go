package profile

import (
	"strings"

	"github.com/Aman-CERP/scoutsearch/internal/player"
)

type threshold struct {
	above   float64
	keyword string
}

// Within a category thresholds are checked highest first and only the first
// match is emitted.
var (
	goalThresholds = []threshold{
		{0.5, "prolific goalscorer"},
		{0.2, "regular goalscorer"},
		{0.05, "occasional goalscorer"},
	}
	assistThresholds = []threshold{
		{0.3, "creative playmaker"},
		{0.1, "supportive playmaker"},
	}
	dribbleThresholds = []threshold{
		{3, "skillful dribbler"},
		{1, "technical player"},
	}
	tackleThresholds = []threshold{
		{2, "strong defender"},
		{1, "defensive contributor"},
	}
	minuteThresholds = []threshold{
		{70, "consistent starter"},
		{30, "regular player"},
	}
)

func pick(rate float64, ts []threshold) (string, bool) {
	for _, t := range ts {
		if rate > t.above {
			return t.keyword, true
		}
	}
	return "", false
}

// StyleKeywords derives playing-style descriptors from per-appearance rates.
// It returns "" when the aggregate has no appearances or no valid seasons.
func StyleKeywords(a CareerAggregate) string {
	if a.ValidSeasons == 0 || a.Total(player.StatAppearances) == 0 {
		return ""
	}

	var keywords []string
	rated := []struct {
		stat player.Stat
		ts   []threshold
	}{
		{player.StatGoals, goalThresholds},
		{player.StatAssists, assistThresholds},
		{player.StatDribblesCompleted, dribbleThresholds},
		{player.StatTackles, tackleThresholds},
	}
	for _, r := range rated {
		if kw, ok := pick(a.PerAppearance(r.stat), r.ts); ok {
			keywords = append(keywords, kw)
		}
	}

	if a.Total(player.StatMinutesPlayed) > 1000 {
		kw, ok := pick(a.PerAppearance(player.StatMinutesPlayed), minuteThresholds)
		if !ok {
			kw = "squad player"
		}
		keywords = append(keywords, kw)
	}

	switch {
	case a.ValidSeasons >= 5:
		keywords = append(keywords, "experienced player")
	case a.ValidSeasons >= 3:
		keywords = append(keywords, "established player")
	default:
		keywords = append(keywords, "developing player")
	}

	return strings.Join(keywords, " ")
}
