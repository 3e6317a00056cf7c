package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relocate/config"
	"relocate/internal/domain"
)

func sampleRuns() []domain.RunRecord {
	return []domain.RunRecord{{
		ID:        "0190a1b2-0000-7000-8000-000000000001",
		Root:      "/dist",
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Result: domain.PassResult{
			Renamed:    []domain.Rename{{From: "node_modules/a.js", To: "external/a.js"}},
			Rewritten:  []string{"main.js"},
			Specifiers: 3,
		},
	}}
}

func TestPrintRuns_Table(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRuns(&out, sampleRuns(), "table"))
	assert.Contains(t, out.String(), "0190a1b2-0000-7000-8000-000000000001")
	assert.Contains(t, out.String(), "1s")
}

func TestPrintRuns_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRuns(&out, sampleRuns(), "json"))

	var runs []domain.RunRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "external/a.js", runs[0].Result.Renamed[0].To)
}

func TestPrintRuns_BadFormat(t *testing.T) {
	assert.Error(t, printRuns(&bytes.Buffer{}, nil, "xml"))
}

func TestPassOptions(t *testing.T) {
	cfg = config.DefaultConfig()
	cfg.Relocate.Replacement = "deps"
	defer func() { cfg = nil }()

	opts, err := passOptions("", false)
	require.NoError(t, err)
	assert.Equal(t, "deps", opts.Replacement)
	assert.True(t, opts.EmitSourceMaps)

	opts, err = passOptions("vendor", true)
	require.NoError(t, err)
	assert.Equal(t, "vendor", opts.Replacement)
	assert.False(t, opts.EmitSourceMaps)
	assert.Equal(t, "vendor/x.js", opts.Renamer().Rename("node_modules/x.js"))

	_, err = passOptions("my_node_modules", false)
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m5s"},
		{2*time.Hour + 7*time.Minute, "2h7m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
