package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_WritesHeaderExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	day := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	require.NoError(t, w.Append(Row{Timestamp: day, PartType: "bolt", Target: 100, Actual: 30}))
	require.NoError(t, w.Append(Row{Timestamp: day.Add(time.Minute), PartType: "bolt", Target: 100, Actual: 60}))
	require.NoError(t, w.Close())

	path := filepath.Join(dir, "report-2026-07-30.csv")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := splitLines(string(data))
	require.Len(t, lines, 3) // header + 2 rows
	assert.Equal(t, "timestamp,session_id,part_type,method,target,actual,elapsed_seconds,rate,min_area,max_area,bg_var_threshold,canny_low,canny_high", lines[0])
}

func TestAppend_RollsOverToNewDayFile(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	day1 := time.Date(2026, 7, 30, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 7, 31, 0, 1, 0, 0, time.UTC)
	require.NoError(t, w.Append(Row{Timestamp: day1}))
	require.NoError(t, w.Append(Row{Timestamp: day2}))
	require.NoError(t, w.Close())

	_, err := os.Stat(filepath.Join(dir, "report-2026-07-30.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "report-2026-07-31.csv"))
	require.NoError(t, err)
}

func TestAppend_ReopeningSameDayFileDoesNotRewriteHeader(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)

	w1 := New(dir)
	require.NoError(t, w1.Append(Row{Timestamp: day}))
	require.NoError(t, w1.Close())

	w2 := New(dir)
	require.NoError(t, w2.Append(Row{Timestamp: day}))
	require.NoError(t, w2.Close())

	data, err := os.ReadFile(filepath.Join(dir, "report-2026-07-30.csv"))
	require.NoError(t, err)
	lines := splitLines(string(data))
	require.Len(t, lines, 3) // one header + two appended rows across both writers
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
