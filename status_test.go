package main

import (
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_x_thread_publisher/history"
)

func testApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()
	a, err := newApp(filepath.Join(dir, "missing.yaml"), log.New(&strings.Builder{}, "", 0))
	require.NoError(t, err)
	a.cfg.StatePath = filepath.Join(dir, "state.db")
	return a
}

func TestSlotsCoverPostTimesAndForecast(t *testing.T) {
	a := testApp(t)
	slots := a.slots()
	require.Len(t, slots, 5)
	assert.Equal(t, "post:07:30", slots[0].Name)
	assert.Equal(t, "forecast", slots[4].Name)
	assert.Equal(t, "06:00", slots[4].At)

	a.cfg.Forecast.Enabled = false
	assert.Len(t, a.slots(), 4)
}

func TestPrintStatus(t *testing.T) {
	a := testApp(t)
	store, err := history.Open(a.cfg.StatePath)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append("ちゃんとしすぎる人の話。", 200))
	_, err = store.NextRotation("angle", 3)
	require.NoError(t, err)
	require.NoError(t, store.SetState("last_success:post:07:30", "2026-08-28"))

	statusRecent = 10
	var out strings.Builder
	require.NoError(t, printStatus(&out, a, store))

	got := out.String()
	assert.Contains(t, got, "Recent Posts (1 of 1)")
	assert.Contains(t, got, "ちゃんとしすぎる人の話。")
	assert.Contains(t, got, "angle")
	assert.Contains(t, got, "2026-08-28")
	assert.Contains(t, got, "forecast")
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "ab cd", oneLine("ab\ncd", 40))
	assert.Equal(t, "あいう", oneLine("あいうえお", 3))
}

func TestSplitPostUsesConfiguredLimits(t *testing.T) {
	a := testApp(t)
	text := strings.Repeat("あ", 129) + "。" + strings.Repeat("い", 50)
	parts := a.splitPost(text)
	require.Len(t, parts, 2)
	assert.LessOrEqual(t, len([]rune(parts[0])), 130)
}
