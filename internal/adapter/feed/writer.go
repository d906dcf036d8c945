// Package feed renders alert events into an RSS 2.0 document.
package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/feeds"

	"github.com/couchcryptid/river-alert-feed/internal/config"
	"github.com/couchcryptid/river-alert-feed/internal/domain"
)

// Writer renders and persists the feed document. It implements
// pipeline.FeedEmitter.
type Writer struct {
	path        string
	title       string
	link        string
	description string
	logger      *slog.Logger
}

// NewWriter creates a feed writer from the service configuration.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return &Writer{
		path:        cfg.FeedPath,
		title:       cfg.FeedTitle,
		link:        cfg.SourceURL,
		description: cfg.FeedDescription,
		logger:      logger,
	}
}

// Emit renders the run's events (or, when heartbeat is set and events are
// empty, the single fallback item) and atomically replaces the feed file.
func (w *Writer) Emit(events []domain.AlertEvent, heartbeat bool, now time.Time) error {
	doc, err := w.Render(events, heartbeat, now)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(w.path, []byte(doc)); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	w.logger.Info("feed written", "path", w.path, "items", len(events), "heartbeat", heartbeat && len(events) == 0)
	return nil
}

// Render produces the RSS document as a string. Event GUIDs are emitted with
// isPermaLink="false": they are dedup tokens, not URLs.
func (w *Writer) Render(events []domain.AlertEvent, heartbeat bool, now time.Time) (string, error) {
	f := &feeds.Feed{
		Title:       w.title,
		Link:        &feeds.Link{Href: w.link},
		Description: w.description,
		Created:     now,
		Updated:     now,
	}

	for _, e := range events {
		f.Items = append(f.Items, &feeds.Item{
			Title:       fmt.Sprintf("Level %d reached: %s", int(e.Level), e.StationName),
			Link:        &feeds.Link{Href: w.link},
			Description: describe(e),
			Id:          e.ID,
			Created:     e.EmittedAt,
		})
	}

	if len(events) == 0 && heartbeat {
		day := now.UTC().Format("2006-01-02")
		f.Items = append(f.Items, &feeds.Item{
			Title:       "Monitoring active, no level crossings",
			Link:        &feeds.Link{Href: w.link},
			Description: "The river gauges were checked and no alert threshold was crossed.",
			Id:          "heartbeat-" + day,
			Created:     now,
		})
	}

	rss := (&feeds.Rss{Feed: f}).RssFeed()
	for _, item := range rss.Items {
		if item.Guid != nil {
			item.Guid.IsPermaLink = "false"
		}
	}

	doc, err := feeds.ToXML(rss)
	if err != nil {
		return "", fmt.Errorf("render feed: %w", err)
	}
	return doc, nil
}

func describe(e domain.AlertEvent) string {
	region := e.Region
	if region == "" {
		region = "n/a"
	}
	desc := fmt.Sprintf("Station %s (%s): mean level %.2f m reached alert level %d (threshold %.2f m).",
		e.StationID, region, e.Reading, int(e.Level), e.Threshold)
	if e.SourceUpdated != "" {
		desc += " Data updated: " + e.SourceUpdated + "."
	}
	return desc
}

// writeFileAtomic writes via a temp file and rename so feed readers polling
// the path never see a half-written document.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".feed-*.xml")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
