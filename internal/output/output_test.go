package output

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/mossy/internal/scoring"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name    string
		emit    func(u *UI)
		wantOut string
		wantErr string
	}{
		{"info", func(u *UI) { u.Info("hello %s", "world") }, "hello world", ""},
		{"success", func(u *UI) { u.Success("done %d", 42) }, "done 42", ""},
		{"warning", func(u *UI) { u.Warning("careful %s", "now") }, "", "careful now"},
		{"error", func(u *UI) { u.Error("failed %s", "badly") }, "", "failed badly"},
		{"verbose off", func(u *UI) { u.VerboseLog("detail") }, "", ""},
		{"verbose on", func(u *UI) { u.Verbose = true; u.VerboseLog("detail %d", 1) }, "detail 1", ""},
		{"dry run off", func(u *UI) { u.DryRunMsg("would write") }, "", ""},
		{"dry run on", func(u *UI) { u.DryRun = true; u.DryRunMsg("would write %s", "x") }, "", "[DRY-RUN] would write x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, out, errOut := newTestUI()
			tt.emit(u)
			if tt.wantOut == "" {
				assert.Empty(t, out.String())
			} else {
				assert.Contains(t, out.String(), tt.wantOut)
			}
			if tt.wantErr == "" {
				assert.Empty(t, errOut.String())
			} else {
				assert.Contains(t, errOut.String(), tt.wantErr)
			}
		})
	}
}

func TestScoreColor(t *testing.T) {
	for _, score := range []int{100, 97, 80, 60, 10} {
		assert.Contains(t, ScoreColor(score), strconv.Itoa(score))
	}
	assert.Contains(t, BandColor(scoring.BandGood), "good")
}

func TestScoreBar(t *testing.T) {
	tests := []struct {
		score        int
		full, hollow int
	}{
		{100, 10, 0},
		{0, 0, 10},
		{74, 7, 3},
		{120, 10, 0},
		{-5, 0, 10},
	}
	for _, tt := range tests {
		bar := ScoreBar(tt.score)
		assert.Equal(t, tt.full, strings.Count(bar, "█"), "score %d", tt.score)
		assert.Equal(t, tt.hollow, strings.Count(bar, "░"), "score %d", tt.score)
	}
}

func TestCheckbox(t *testing.T) {
	assert.Contains(t, Checkbox(true), "[x]")
	assert.Equal(t, "[ ]", Checkbox(false))
}

func TestPartColor(t *testing.T) {
	assert.Contains(t, PartColor(scoring.PartComplete), "complete")
	assert.Contains(t, PartColor(scoring.PartIncomplete), "incomplete")
	assert.Equal(t, "empty", PartColor(scoring.PartEmpty))
}

func TestTable(t *testing.T) {
	u, out, _ := newTestUI()
	table := u.Table([]string{"Day", "Score"})
	require.NotNil(t, table)

	require.NoError(t, table.Append([]string{"2023-06-05", "100"}))
	require.NoError(t, table.Append([]string{"2023-06-06", "35"}))
	require.NoError(t, table.Render())

	assert.Contains(t, out.String(), "2023-06-05")
	assert.Contains(t, out.String(), "35")
}
