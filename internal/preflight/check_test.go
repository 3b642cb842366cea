package preflight

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/scoutsearch/internal/config"
	"github.com/Aman-CERP/scoutsearch/internal/embed"
	"github.com/Aman-CERP/scoutsearch/internal/player"
)

type sliceSource struct {
	players []player.Player
	err     error
}

func (s sliceSource) Load(context.Context) ([]player.Player, error) { return s.players, s.err }
func (s sliceSource) String() string                                 { return "test source" }

type downEmbedder struct {
	*embed.StaticEmbedder
}

func (downEmbedder) Available(context.Context) bool { return false }

func complete(id string) player.Player {
	return player.Player{
		PlayerID:         player.ID(id),
		FullName:         "Player " + id,
		CurrentClub:      &player.Club{ClubID: "10", ClubName: "Harbour FC"},
		SeasonStatistics: []player.SeasonStats{},
	}
}

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
		{CheckStatus(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckStatus_MarshalText(t *testing.T) {
	text, err := StatusWarn.MarshalText()

	require.NoError(t, err)
	assert.Equal(t, "warn", string(text))
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name   string
		result CheckResult
		want   bool
	}{
		{"required pass", CheckResult{Status: StatusPass, Required: true}, false},
		{"required fail", CheckResult{Status: StatusFail, Required: true}, true},
		{"optional fail", CheckResult{Status: StatusFail}, false},
		{"required warn", CheckResult{Status: StatusWarn, Required: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.IsCritical())
		})
	}
}

func TestChecker_NewWithOptions(t *testing.T) {
	buf := &bytes.Buffer{}
	checker := New(WithVerbose(true), WithOutput(buf))

	assert.True(t, checker.verbose)
	assert.Equal(t, buf, checker.output)
	assert.Equal(t, os.Stdout, New().output)
}

func TestChecker_SummaryStatus(t *testing.T) {
	checker := New()

	tests := []struct {
		name    string
		results []CheckResult
		want    string
	}{
		{"all pass", []CheckResult{{Status: StatusPass}, {Status: StatusPass}}, "ready"},
		{"warning", []CheckResult{{Status: StatusPass}, {Status: StatusWarn}}, "ready_with_warnings"},
		{"optional failure", []CheckResult{{Status: StatusFail}}, "ready_with_warnings"},
		{"required failure", []CheckResult{{Status: StatusWarn}, {Status: StatusFail, Required: true}}, "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.SummaryStatus(tt.results))
			assert.Equal(t, tt.want == "failed", checker.HasCriticalFailures(tt.results))
		})
	}
}

func TestChecker_CheckWritePermissions(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs", "nested")

		result := New().CheckWritePermissions(dir)

		assert.Equal(t, StatusPass, result.Status)
		assert.DirExists(t, dir)
		assert.NoFileExists(t, filepath.Join(dir, ".scoutsearch-preflight"))
	})

	t.Run("read-only directory", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("root can write anywhere")
		}
		dir := filepath.Join(t.TempDir(), "readonly")
		require.NoError(t, os.Mkdir(dir, 0o555))
		t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

		result := New().CheckWritePermissions(dir)

		assert.Equal(t, StatusFail, result.Status)
		assert.Contains(t, result.Message, "permission denied")
	})
}

func TestChecker_CheckSnapshot(t *testing.T) {
	ctx := context.Background()
	checker := New()

	t.Run("valid", func(t *testing.T) {
		players, result := checker.CheckSnapshot(ctx, sliceSource{players: []player.Player{complete("1"), complete("2")}})

		assert.Equal(t, StatusPass, result.Status)
		assert.Equal(t, "2 players", result.Message)
		assert.Len(t, players, 2)
	})

	t.Run("load error", func(t *testing.T) {
		players, result := checker.CheckSnapshot(ctx, sliceSource{err: errors.New("bad json")})

		assert.Nil(t, players)
		assert.True(t, result.IsCritical())
		assert.Contains(t, result.Message, "bad json")
	})

	t.Run("empty", func(t *testing.T) {
		_, result := checker.CheckSnapshot(ctx, sliceSource{players: []player.Player{}})

		assert.True(t, result.IsCritical())
		assert.Equal(t, "snapshot is empty", result.Message)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, result := checker.CheckSnapshot(ctx, sliceSource{players: []player.Player{complete("7"), complete("7")}})

		assert.True(t, result.IsCritical())
		assert.Contains(t, result.Message, "player id 7")
	})
}

func TestChecker_CheckProfiles(t *testing.T) {
	noClub := complete("3")
	noClub.CurrentClub = nil
	players := []player.Player{complete("1"), complete("2"), noClub}
	checker := New()

	t.Run("skip policy warns", func(t *testing.T) {
		result := checker.CheckProfiles(players, "skip")

		assert.Equal(t, StatusWarn, result.Status)
		assert.Equal(t, "1 of 3 records will be skipped", result.Message)
		assert.Contains(t, result.Details, "current_club")
	})

	t.Run("fail policy fails", func(t *testing.T) {
		result := checker.CheckProfiles(players, "fail")

		assert.True(t, result.IsCritical())
	})

	t.Run("placeholder builds all", func(t *testing.T) {
		result := checker.CheckProfiles(players, "placeholder")

		assert.Equal(t, StatusPass, result.Status)
		assert.Equal(t, "all 3 profiles build", result.Message)
	})

	t.Run("unknown policy", func(t *testing.T) {
		result := checker.CheckProfiles(players, "ignore")

		assert.True(t, result.IsCritical())
		assert.Contains(t, result.Message, "missing_field_policy")
	})
}

func TestChecker_CheckEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("static warns", func(t *testing.T) {
		result := New().CheckEmbedder(ctx, embed.NewStaticEmbedder())

		assert.Equal(t, StatusWarn, result.Status)
		assert.False(t, result.Required)
		assert.Contains(t, result.Details, "256 dimensions")
	})

	t.Run("unreachable fails but is optional", func(t *testing.T) {
		result := New().CheckEmbedder(ctx, downEmbedder{embed.NewStaticEmbedder()})

		assert.Equal(t, StatusFail, result.Status)
		assert.False(t, result.IsCritical())
	})
}

func TestChecker_CheckDiskSpace(t *testing.T) {
	result := New().CheckDiskSpace(t.TempDir())

	assert.Equal(t, "disk_space", result.Name)
	assert.Contains(t, result.Message, "free")

	missing := New().CheckDiskSpace(filepath.Join(t.TempDir(), "absent"))
	assert.Equal(t, StatusFail, missing.Status)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{512, "512 bytes"},
		{2048, "2.0 KB"},
		{150 * 1024 * 1024, "150.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.n))
	}
}

func TestChecker_CheckFileDescriptors(t *testing.T) {
	result := New().CheckFileDescriptors()

	assert.Equal(t, "file_descriptors", result.Name)
	assert.NotEmpty(t, result.Message)
}

func TestChecker_RunAll(t *testing.T) {
	// Given: every input present
	target := Target{
		Config:   config.NewConfig(),
		Source:   sliceSource{players: []player.Player{complete("1")}},
		Embedder: embed.NewStaticEmbedder(),
		LogDir:   t.TempDir(),
	}

	// When: running all checks
	results := New().RunAll(context.Background(), target)

	// Then: each check appears once, in order
	var names []string
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		"config", "snapshot", "profiles", "embedder",
		"write_permissions", "disk_space", "file_descriptors",
	}, names)
}

func TestChecker_RunAll_SkipsProfilesWhenLoadFails(t *testing.T) {
	results := New().RunAll(context.Background(), Target{Source: sliceSource{err: errors.New("gone")}})

	require.Len(t, results, 2)
	assert.Equal(t, "snapshot", results[0].Name)
	assert.Equal(t, "file_descriptors", results[1].Name)
}

func TestChecker_PrintResults(t *testing.T) {
	// Given: mixed results and verbose output
	results := []CheckResult{
		{Name: "snapshot", Status: StatusPass, Message: "4 players", Details: "data/players.json", Required: true},
		{Name: "embedder", Status: StatusWarn, Message: "static embeddings"},
		{Name: "disk_space", Status: StatusFail, Message: "10 MB free", Required: true},
	}
	buf := &bytes.Buffer{}

	// When: printing
	New(WithOutput(buf), WithVerbose(true)).PrintResults(results)

	// Then: lines, details and the summary are shown
	out := buf.String()
	assert.Contains(t, out, "[PASS] snapshot: 4 players")
	assert.Contains(t, out, "       data/players.json")
	assert.Contains(t, out, "[WARN] embedder")
	assert.Contains(t, out, "Status: FAILED")
	assert.Contains(t, out, "1 error(s):\n  - disk_space: 10 MB free")
	assert.Contains(t, out, "1 warning(s):\n  - embedder: static embeddings")
}
