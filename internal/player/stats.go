package player

import "encoding/json"

// Stat names one tracked per-season statistic.
type Stat int

// Tracked statistics, in aggregation order.
const (
	StatAppearances Stat = iota
	StatGoals
	StatAssists
	StatMinutesPlayed
	StatTackles
	StatInterceptions
	StatDribblesCompleted
	StatCrossesCompleted
	StatYellowCards
	StatRedCards
	StatPassesCompleted
	StatTouchesInBox
	StatDuelsWon
	StatExpectedGoals
	StatExpectedAssists

	NumStats int = iota
)

var statNames = [NumStats]string{
	"appearances",
	"goals",
	"assists",
	"minutesPlayed",
	"tackles",
	"interceptions",
	"dribblesCompleted",
	"crossesCompleted",
	"yellowCards",
	"redCards",
	"passesCompleted",
	"touchesInBox",
	"duelsWon",
	"expectedGoals",
	"expectedAssists",
}

// String returns the JSON key of the statistic.
func (s Stat) String() string {
	if s < 0 || int(s) >= NumStats {
		return "unknown"
	}
	return statNames[s]
}

// SeasonStats is one player's statistics for one season at one club.
// Every tracked value is nullable; nil means the source had no value.
type SeasonStats struct {
	PlayerID ID `json:"playerId"`
	ClubID   ID `json:"clubId"`
	SeasonID ID `json:"seasonId"`

	Appearances       *float64 `json:"appearances"`
	Goals             *float64 `json:"goals"`
	Assists           *float64 `json:"assists"`
	MinutesPlayed     *float64 `json:"minutesPlayed"`
	Tackles           *float64 `json:"tackles"`
	Interceptions     *float64 `json:"interceptions"`
	DribblesCompleted *float64 `json:"dribblesCompleted"`
	CrossesCompleted  *float64 `json:"crossesCompleted"`
	YellowCards       *float64 `json:"yellowCards"`
	RedCards          *float64 `json:"redCards"`
	PassesCompleted   *float64 `json:"passesCompleted"`
	TouchesInBox      *float64 `json:"touchesInBox"`
	DuelsWon          *float64 `json:"duelsWon"`
	ExpectedGoals     *float64 `json:"expectedGoals"`
	ExpectedAssists   *float64 `json:"expectedAssists"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Values returns the tracked statistics indexed by Stat.
func (s *SeasonStats) Values() [NumStats]*float64 {
	return [NumStats]*float64{
		s.Appearances,
		s.Goals,
		s.Assists,
		s.MinutesPlayed,
		s.Tackles,
		s.Interceptions,
		s.DribblesCompleted,
		s.CrossesCompleted,
		s.YellowCards,
		s.RedCards,
		s.PassesCompleted,
		s.TouchesInBox,
		s.DuelsWon,
		s.ExpectedGoals,
		s.ExpectedAssists,
	}
}

// Value returns one tracked statistic, or nil when absent.
func (s *SeasonStats) Value(stat Stat) *float64 {
	if stat < 0 || int(stat) >= NumStats {
		return nil
	}
	return s.Values()[stat]
}

// HasData reports whether at least one tracked statistic is present.
func (s *SeasonStats) HasData() bool {
	for _, v := range s.Values() {
		if v != nil {
			return true
		}
	}
	return false
}

type seasonFields SeasonStats

// UnmarshalJSON decodes the season and keeps unmodelled keys.
func (s *SeasonStats) UnmarshalJSON(data []byte) error {
	var f seasonFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := splitExtra(data, f)
	if err != nil {
		return err
	}
	f.Extra = extra
	*s = SeasonStats(f)
	return nil
}

// MarshalJSON encodes the season merged with Extra.
func (s SeasonStats) MarshalJSON() ([]byte, error) {
	return mergeExtra(seasonFields(s), s.Extra)
}

// Float returns a pointer to v. Handy for building records in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
