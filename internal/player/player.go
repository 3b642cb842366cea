// Package player defines the enriched player record consumed by the search
// engine, plus the snapshot sources it is loaded from.
//
// Records are decoded leniently: identifiers may arrive as JSON strings or
// numbers, every tracked statistic is nullable, and keys the structs do not
// model are kept in Extra so a record survives a load/save round trip intact.
package player

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// ID is a record identifier. Raw data uses both numeric and string ids, so
// ID accepts either on decode and always encodes as a string.
type ID string

// UnmarshalJSON accepts a JSON string, number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// Less orders ids numerically when both parse as numbers, lexically otherwise.
func (id ID) Less(other ID) bool {
	a, errA := strconv.ParseFloat(string(id), 64)
	b, errB := strconv.ParseFloat(string(other), 64)
	if errA == nil && errB == nil {
		return a < b
	}
	return id < other
}

// Club is a club reference as embedded in a player record.
type Club struct {
	ClubID   ID     `json:"clubId"`
	ClubName string `json:"clubName"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ClubSpell is one club in a player's history with the seasons spent there.
type ClubSpell struct {
	ClubID   ID     `json:"clubId"`
	ClubName string `json:"clubName"`
	Seasons  []ID   `json:"seasons"`
}

// Nationality is a nationality lookup entry keyed by its ISO country id.
type Nationality struct {
	CountryID ID `json:"countryId"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Player is a fully enriched player record.
type Player struct {
	PlayerID       ID       `json:"playerId"`
	FullName       string   `json:"fullName,omitempty"`
	Age            *int     `json:"age"`
	Nationality    string   `json:"nationality,omitempty"`
	NationalityISO string   `json:"nationalityISO,omitempty"`
	Position       string   `json:"position,omitempty"`
	DateOfBirth    *string  `json:"dateOfBirth,omitempty"`
	HeightCm       *float64 `json:"heightCm"`
	WeightKg       *float64 `json:"weightKg"`
	PreferredFoot  string   `json:"preferredFoot,omitempty"`
	ShirtNumber    *float64 `json:"shirtNumber,omitempty"`

	CurrentClub *Club `json:"current_club,omitempty"`

	// SeasonStatistics is nil when the key is absent and empty when the
	// record carries an empty list. The profile builder treats them differently.
	SeasonStatistics []SeasonStats `json:"season_statistics"`

	ClubHistory        []ClubSpell  `json:"club_history,omitempty"`
	NationalityDetails *Nationality `json:"nationality_details,omitempty"`
	TotalSeasons       *int         `json:"total_seasons,omitempty"`
	CareerGoals        *float64     `json:"career_goals,omitempty"`
	CareerAssists      *float64     `json:"career_assists,omitempty"`

	// Extra holds keys not modelled above.
	Extra map[string]json.RawMessage `json:"-"`
}

type playerFields Player

// UnmarshalJSON decodes the modelled fields and keeps the rest in Extra.
func (p *Player) UnmarshalJSON(data []byte) error {
	var f playerFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := splitExtra(data, f)
	if err != nil {
		return err
	}
	f.Extra = extra
	*p = Player(f)
	return nil
}

// MarshalJSON encodes the modelled fields merged with Extra.
func (p Player) MarshalJSON() ([]byte, error) {
	return mergeExtra(playerFields(p), p.Extra)
}

type clubFields Club

// UnmarshalJSON decodes the club and keeps unmodelled keys.
func (c *Club) UnmarshalJSON(data []byte) error {
	var f clubFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := splitExtra(data, f)
	if err != nil {
		return err
	}
	f.Extra = extra
	*c = Club(f)
	return nil
}

// MarshalJSON encodes the club merged with Extra.
func (c Club) MarshalJSON() ([]byte, error) {
	return mergeExtra(clubFields(c), c.Extra)
}

type nationalityFields Nationality

// UnmarshalJSON decodes the entry and keeps unmodelled keys.
func (n *Nationality) UnmarshalJSON(data []byte) error {
	var f nationalityFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	extra, err := splitExtra(data, f)
	if err != nil {
		return err
	}
	f.Extra = extra
	*n = Nationality(f)
	return nil
}

// MarshalJSON encodes the entry merged with Extra.
func (n Nationality) MarshalJSON() ([]byte, error) {
	return mergeExtra(nationalityFields(n), n.Extra)
}

// splitExtra returns the keys of data that do not appear in the encoding of
// the already decoded value.
func splitExtra(data []byte, decoded any) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	known := jsonFieldNames(decoded)
	var extra map[string]json.RawMessage
	for k, v := range all {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra, nil
}

func mergeExtra(fields any, extra map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

var fieldNameCache sync.Map // reflect.Type -> map[string]struct{}

// jsonFieldNames lists the JSON keys of a struct value's exported fields,
// including omitempty fields that happen to be zero.
func jsonFieldNames(v any) map[string]struct{} {
	t := reflect.TypeOf(v)
	if cached, ok := fieldNameCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	names := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names[name] = struct{}{}
	}
	fieldNameCache.Store(t, names)
	return names
}
