package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Aman-CERP/scoutsearch/internal/player"
)

// DateLayout is the date format of dateOfBirth.
const DateLayout = "2006-01-02"

// numericFields arrive as numbers, numeric strings, or empty strings.
var numericFields = []string{"heightCm", "weightKg", "shirtNumber", "totalAppearances"}

// Report summarizes an enrichment run.
type Report struct {
	Players          int `json:"players"`
	WithCurrentClub  int `json:"with_current_club"`
	WithNationality  int `json:"with_nationality"`
	SeasonRecords    int `json:"season_records"`
	InvalidBirthDate int `json:"invalid_birth_dates"`
}

// Enricher joins raw export tables into enriched player records.
type Enricher struct {
	now func() time.Time
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithClock sets the clock used for age computation.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEnricher creates an Enricher using the wall clock.
func NewEnricher(opts ...Option) *Enricher {
	e := &Enricher{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// clubSeasons collects the seasons a player spent at one club.
type clubSeasons struct {
	clubID  player.ID
	seasons []player.ID
}

// Enrich produces one enriched record per raw player, in input order.
//
// Each player gains its season statistics, career totals, club history, the
// current club (the club of the latest season), and nationality details when
// its ISO code is known. Numeric fields are normalized and age is derived
// from dateOfBirth.
func (e *Enricher) Enrich(ctx context.Context, raw *RawData) ([]player.Player, Report, error) {
	var report Report

	clubs := make(map[player.ID]player.Club, len(raw.Clubs))
	for _, c := range raw.Clubs {
		clubs[c.ClubID] = c
	}
	nationalities := make(map[player.ID]player.Nationality, len(raw.Nationalities))
	for _, n := range raw.Nationalities {
		nationalities[n.CountryID] = n
	}

	statsByPlayer := make(map[player.ID][]player.SeasonStats)
	spellsByPlayer := make(map[player.ID][]*clubSeasons)
	for _, s := range raw.SeasonStats {
		statsByPlayer[s.PlayerID] = append(statsByPlayer[s.PlayerID], s)

		spells := spellsByPlayer[s.PlayerID]
		i := slices.IndexFunc(spells, func(cs *clubSeasons) bool { return cs.clubID == s.ClubID })
		if i < 0 {
			spells = append(spells, &clubSeasons{clubID: s.ClubID})
			i = len(spells) - 1
			spellsByPlayer[s.PlayerID] = spells
		}
		spells[i].seasons = append(spells[i].seasons, s.SeasonID)
	}

	out := make([]player.Player, 0, len(raw.Players))
	for i, fields := range raw.Players {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, report, err
			}
		}

		invalidDate := e.normalize(fields)
		if invalidDate {
			report.InvalidBirthDate++
		}

		data, err := json.Marshal(fields)
		if err != nil {
			return nil, report, fmt.Errorf("encode player %d: %w", i, err)
		}
		var p player.Player
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, report, fmt.Errorf("decode player %d: %w", i, err)
		}

		spells := spellsByPlayer[p.PlayerID]
		if current, ok := currentClub(spells, clubs); ok {
			p.CurrentClub = &current
			report.WithCurrentClub++
		}
		if len(spells) > 0 {
			p.ClubHistory = clubHistory(spells, clubs)
		}

		if p.NationalityISO != "" {
			if n, ok := nationalities[player.ID(p.NationalityISO)]; ok {
				p.NationalityDetails = &n
				report.WithNationality++
			}
		}

		seasons := statsByPlayer[p.PlayerID]
		if seasons == nil {
			seasons = []player.SeasonStats{}
		}
		p.SeasonStatistics = seasons
		p.TotalSeasons = player.Int(len(seasons))
		p.CareerGoals = player.Float(sum(seasons, player.StatGoals))
		p.CareerAssists = player.Float(sum(seasons, player.StatAssists))
		report.SeasonRecords += len(seasons)

		out = append(out, p)
	}
	report.Players = len(out)

	slog.Info("enrichment_complete",
		slog.Int("players", report.Players),
		slog.Int("with_current_club", report.WithCurrentClub),
		slog.Int("with_nationality", report.WithNationality),
		slog.Int("season_records", report.SeasonRecords),
		slog.Int("invalid_birth_dates", report.InvalidBirthDate))

	return out, report, nil
}

// normalize rewrites numeric fields and dateOfBirth in place. It reports
// whether a present birth date failed to parse.
func (e *Enricher) normalize(fields map[string]json.RawMessage) bool {
	for _, name := range numericFields {
		v, ok := fields[name]
		if !ok || isNull(v) {
			continue
		}
		fields[name] = normalizeNumber(v)
	}

	v, ok := fields["dateOfBirth"]
	if !ok || isNull(v) {
		return false
	}
	var dob string
	if err := json.Unmarshal(v, &dob); err != nil || dob == "" {
		return false
	}
	birth, err := time.Parse(DateLayout, strings.TrimSpace(dob))
	if err != nil {
		fields["dateOfBirth"] = json.RawMessage("null")
		fields["age"] = json.RawMessage("null")
		return true
	}
	fields["dateOfBirth"] = mustMarshal(birth.Format(DateLayout))
	fields["age"] = mustMarshal(Age(birth, e.now()))
	return false
}

// normalizeNumber maps a JSON number or numeric string to a JSON number and
// anything else to null.
func normalizeNumber(v json.RawMessage) json.RawMessage {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return mustMarshal(f)
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return json.RawMessage("null")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return json.RawMessage("null")
	}
	return mustMarshal(f)
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

// Age returns completed years between birth and now.
func Age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// currentClub picks the known club of the player's latest season. Ties go to
// the club seen first.
func currentClub(spells []*clubSeasons, clubs map[player.ID]player.Club) (player.Club, bool) {
	var (
		latest  player.ID
		current player.ID
		found   bool
	)
	for _, cs := range spells {
		top := slices.MaxFunc(cs.seasons, compareIDs)
		if !found || latest.Less(top) {
			latest, current, found = top, cs.clubID, true
		}
	}
	if !found {
		return player.Club{}, false
	}
	club, ok := clubs[current]
	if !ok {
		return player.Club{}, false
	}
	club.ClubID = current
	return club, true
}

// clubHistory lists the known clubs a player appeared for, seasons sorted.
func clubHistory(spells []*clubSeasons, clubs map[player.ID]player.Club) []player.ClubSpell {
	history := make([]player.ClubSpell, 0, len(spells))
	for _, cs := range spells {
		club, ok := clubs[cs.clubID]
		if !ok {
			continue
		}
		seasons := slices.Clone(cs.seasons)
		slices.SortStableFunc(seasons, compareIDs)
		history = append(history, player.ClubSpell{
			ClubID:   cs.clubID,
			ClubName: club.ClubName,
			Seasons:  seasons,
		})
	}
	return history
}

func compareIDs(a, b player.ID) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

func sum(seasons []player.SeasonStats, stat player.Stat) float64 {
	var total float64
	for i := range seasons {
		if v := seasons[i].Value(stat); v != nil {
			total += *v
		}
	}
	return total
}
