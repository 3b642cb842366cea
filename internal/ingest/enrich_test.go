package ingest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/Aman-CERP/scoutsearch/internal/errors"
	"github.com/Aman-CERP/scoutsearch/internal/player"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func writeRaw(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		ClubsFile: `[
			{"clubId": 10, "clubName": "Harbour FC", "city": "Portsmouth"},
			{"clubId": 20, "clubName": "Quay United"}
		]`,
		NationalitiesFile: `[
			{"countryId": "ENG", "name": "England"},
			{"countryId": "ESP", "name": "Spain"}
		]`,
		PlayersFile: `[
			{"playerId": 1, "fullName": "Ada Striker", "nationality": "England", "nationalityISO": "ENG",
			 "position": "Forward", "dateOfBirth": "2000-06-16", "heightCm": "181.5", "weightKg": 75,
			 "shirtNumber": "", "totalAppearances": "58", "preferredFoot": "Right"},
			{"playerId": 2, "fullName": "Ben Keeper", "nationalityISO": "XXX", "dateOfBirth": "15/06/1990",
			 "heightCm": "tall"},
			{"playerId": 3, "fullName": "Cal Unsigned"}
		]`,
		SeasonStatsFile: `[
			{"playerId": 1, "clubId": 20, "seasonId": 2021, "appearances": 30, "goals": 20, "assists": 3},
			{"playerId": 1, "clubId": 10, "seasonId": 2023, "appearances": 28, "goals": 18, "assists": null},
			{"playerId": 1, "clubId": 20, "seasonId": 2020, "appearances": 10, "goals": 2, "assists": 1},
			{"playerId": 2, "clubId": 99, "seasonId": 2024, "appearances": 5}
		]`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func enrichFixture(t *testing.T) ([]player.Player, Report) {
	t.Helper()
	dir := t.TempDir()
	writeRaw(t, dir)
	raw, err := LoadRaw(dir)
	require.NoError(t, err)

	players, report, err := NewEnricher(WithClock(func() time.Time { return fixedNow })).
		Enrich(context.Background(), raw)
	require.NoError(t, err)
	require.Len(t, players, 3)
	return players, report
}

func TestEnrich_JoinsClubsAndStatistics(t *testing.T) {
	// Given: a raw export where player 1 moved from club 20 to club 10
	players, _ := enrichFixture(t)
	ada := players[0]

	// Then: the club of the latest season is current
	require.NotNil(t, ada.CurrentClub)
	assert.Equal(t, player.ID("10"), ada.CurrentClub.ClubID)
	assert.Equal(t, "Harbour FC", ada.CurrentClub.ClubName)
	assert.JSONEq(t, `"Portsmouth"`, string(ada.CurrentClub.Extra["city"]))

	// And: history lists clubs in first-seen order with sorted seasons
	require.Len(t, ada.ClubHistory, 2)
	assert.Equal(t, player.ID("20"), ada.ClubHistory[0].ClubID)
	assert.Equal(t, []player.ID{"2020", "2021"}, ada.ClubHistory[0].Seasons)
	assert.Equal(t, "Quay United", ada.ClubHistory[0].ClubName)
	assert.Equal(t, player.ID("10"), ada.ClubHistory[1].ClubID)

	// And: statistics and career totals are attached, nulls counting as zero
	assert.Len(t, ada.SeasonStatistics, 3)
	require.NotNil(t, ada.TotalSeasons)
	assert.Equal(t, 3, *ada.TotalSeasons)
	assert.Equal(t, 40.0, *ada.CareerGoals)
	assert.Equal(t, 4.0, *ada.CareerAssists)

	// And: nationality details are resolved by ISO code
	require.NotNil(t, ada.NationalityDetails)
	assert.Equal(t, player.ID("ENG"), ada.NationalityDetails.CountryID)
}

func TestEnrich_NormalizesFields(t *testing.T) {
	players, report := enrichFixture(t)
	ada, ben := players[0], players[1]

	// Numeric strings become numbers; empty strings become null
	require.NotNil(t, ada.HeightCm)
	assert.Equal(t, 181.5, *ada.HeightCm)
	assert.Equal(t, 75.0, *ada.WeightKg)
	assert.Nil(t, ada.ShirtNumber)
	assert.JSONEq(t, `58`, string(ada.Extra["totalAppearances"]))
	assert.Nil(t, ben.HeightCm)

	// Age is computed against the injected clock, the day before a birthday
	require.NotNil(t, ada.Age)
	assert.Equal(t, 24, *ada.Age)
	require.NotNil(t, ada.DateOfBirth)
	assert.Equal(t, "2000-06-16", *ada.DateOfBirth)

	// Unparseable dates clear both date and age
	assert.Nil(t, ben.DateOfBirth)
	assert.Nil(t, ben.Age)
	assert.Equal(t, 1, report.InvalidBirthDate)
}

func TestEnrich_UnknownReferences(t *testing.T) {
	players, report := enrichFixture(t)
	ben, cal := players[1], players[2]

	// Given: player 2 only played for a club missing from the lookup
	assert.Nil(t, ben.CurrentClub)
	assert.Empty(t, ben.ClubHistory)
	assert.Nil(t, ben.NationalityDetails)
	assert.Len(t, ben.SeasonStatistics, 1)

	// Given: player 3 has no statistics at all
	assert.Nil(t, cal.CurrentClub)
	require.NotNil(t, cal.SeasonStatistics)
	assert.Empty(t, cal.SeasonStatistics)
	assert.Equal(t, 0, *cal.TotalSeasons)
	assert.Equal(t, 0.0, *cal.CareerGoals)

	assert.Equal(t, Report{
		Players:          3,
		WithCurrentClub:  1,
		WithNationality:  1,
		SeasonRecords:    4,
		InvalidBirthDate: 1,
	}, report)
}

func TestEnrich_OutputRoundTripsThroughSnapshot(t *testing.T) {
	players, _ := enrichFixture(t)
	path := filepath.Join(t.TempDir(), player.DefaultSnapshotFile)

	require.NoError(t, player.WriteSnapshot(path, players))
	loaded, err := player.ReadSnapshot(path)

	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "Ada Striker", loaded[0].FullName)
	assert.Equal(t, "Harbour FC", loaded[0].CurrentClub.ClubName)

	data, err := json.Marshal(loaded[2])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"season_statistics":[]`)
}

func TestEnrich_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewEnricher().Enrich(ctx, &RawData{
		Players: []map[string]json.RawMessage{{"playerId": json.RawMessage(`1`)}},
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadRaw_MissingFile(t *testing.T) {
	_, err := LoadRaw(t.TempDir())

	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeFileNotFound, serrors.GetCode(err))
}

func TestLoadRaw_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, PlayersFile), []byte(`{not json`), 0o644))

	_, err := LoadRaw(dir)

	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeSnapshotCorrupt, serrors.GetCode(err))
}

func TestAge(t *testing.T) {
	birth := time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2020, 2, 28, 0, 0, 0, 0, time.UTC), 19},
		{time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), 20},
		{time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), 21},
		{time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Age(birth, tt.now), tt.now.Format(DateLayout))
	}
}
