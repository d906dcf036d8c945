package feed

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/river-alert-feed/internal/config"
	"github.com/couchcryptid/river-alert-feed/internal/domain"
)

var now = time.Date(2026, 1, 12, 13, 10, 0, 0, time.UTC)

func testWriter(t *testing.T) *Writer {
	t.Helper()
	cfg := &config.Config{
		SourceURL:       "https://example.org/rios",
		FeedPath:        filepath.Join(t.TempDir(), "rss.xml"),
		FeedTitle:       "Flood alerts",
		FeedDescription: "Alert feed for river gauges.",
	}
	return NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleEvent() domain.AlertEvent {
	return domain.AlertEvent{
		ID:            "cross-22-l2-deadbeef01020304",
		StationID:     "22",
		StationName:   "Guadalhorce en Cartama (MA)",
		Region:        "MA",
		Level:         domain.Level2,
		Reading:       2.15,
		Threshold:     2.0,
		SourceUpdated: "12-01-2026 13:00:00",
		EmittedAt:     now,
	}
}

func TestRender_AlertItem(t *testing.T) {
	doc, err := testWriter(t).Render([]domain.AlertEvent{sampleEvent()}, false, now)
	require.NoError(t, err)

	assert.Contains(t, doc, "<title>Flood alerts</title>")
	assert.Contains(t, doc, "<link>https://example.org/rios</link>")
	assert.Contains(t, doc, "Level 2 reached: Guadalhorce en Cartama (MA)")
	assert.Contains(t, doc, `<guid isPermaLink="false">cross-22-l2-deadbeef01020304</guid>`)
	assert.Contains(t, doc, "mean level 2.15 m reached alert level 2 (threshold 2.00 m)")
	assert.Contains(t, doc, "Data updated: 12-01-2026 13:00:00")
	assert.NotContains(t, doc, "Monitoring active", "no heartbeat alongside real events")
}

func TestRender_HeartbeatWhenQuiet(t *testing.T) {
	doc, err := testWriter(t).Render(nil, true, now)
	require.NoError(t, err)

	assert.Contains(t, doc, "Monitoring active, no level crossings")
	assert.Contains(t, doc, `<guid isPermaLink="false">heartbeat-2026-01-12</guid>`)
}

func TestRender_QuietWithoutHeartbeat(t *testing.T) {
	doc, err := testWriter(t).Render(nil, false, now)
	require.NoError(t, err)

	assert.NotContains(t, doc, "<item>")
}

func TestRender_HeartbeatSuppressedByEvents(t *testing.T) {
	doc, err := testWriter(t).Render([]domain.AlertEvent{sampleEvent()}, true, now)
	require.NoError(t, err)

	assert.Contains(t, doc, "Level 2 reached")
	assert.NotContains(t, doc, "heartbeat-")
}

func TestRender_MultipleEventsKeepOrder(t *testing.T) {
	first := sampleEvent()
	second := sampleEvent()
	second.ID = "cross-22-l3-cafecafe01020304"
	second.Level = domain.Level3
	second.Threshold = 3.0

	doc, err := testWriter(t).Render([]domain.AlertEvent{first, second}, false, now)
	require.NoError(t, err)

	l2 := "cross-22-l2-deadbeef01020304"
	l3 := "cross-22-l3-cafecafe01020304"
	assert.Contains(t, doc, l2)
	assert.Contains(t, doc, l3)
	assert.Less(t, strings.Index(doc, l2), strings.Index(doc, l3), "ascending level order preserved")
}

func TestEmit_WritesFile(t *testing.T) {
	w := testWriter(t)
	require.NoError(t, w.Emit([]domain.AlertEvent{sampleEvent()}, false, now))

	data, err := os.ReadFile(w.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<rss")

	// Re-emit replaces the document and leaves no temp files.
	require.NoError(t, w.Emit(nil, true, now))
	entries, err := os.ReadDir(filepath.Dir(w.path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
