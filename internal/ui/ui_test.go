package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/scoutsearch/internal/search"
)

func TestStageNames(t *testing.T) {
	tests := []struct {
		stage search.BuildStage
		name  string
		icon  string
	}{
		{search.StageProfiles, "Profiles", "PROFILE"},
		{search.StageEmbedding, "Embed", "EMBED"},
		{search.StageIndexing, "Index", "INDEX"},
		{search.StageComplete, "Done", "DONE"},
		{"bogus", "Unknown", "???"},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			assert.Equal(t, tt.name, StageName(tt.stage))
			assert.Equal(t, tt.icon, StageIcon(tt.stage))
		})
	}
}

func TestNewConfig_Options(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer

	cfg := NewConfig(&buf, WithForcePlain(true), WithTitle("snapshot.json"))

	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor, "NO_COLOR set")
	assert.Equal(t, "snapshot.json", cfg.Title)
	assert.False(t, NewConfig(&buf, WithNoColor(false)).NoColor)
}

func TestNewRenderer_PlainForNonTTY(t *testing.T) {
	var buf bytes.Buffer

	_, ok := NewRenderer(NewConfig(&buf)).(*PlainRenderer)

	assert.True(t, ok)
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.False(t, IsTTY(f))
}

func TestDetectCI(t *testing.T) {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"} {
		t.Setenv(v, "")
		require.NoError(t, os.Unsetenv(v))
	}
	assert.False(t, DetectCI())

	t.Setenv("CI", "true")
	assert.True(t, DetectCI())
}

func TestGetStyles(t *testing.T) {
	assert.Equal(t, "x", GetStyles(true).Active.Render("x"))
	assert.Contains(t, GetStyles(false).Active.Render("x"), "x")
}
