// Package saih fetches and parses the SAIH Hidrosur river summary page.
package saih

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/river-alert-feed/internal/domain"
)

const userAgent = "Mozilla/5.0 (compatible; river-alert-feed/1.0; +https://github.com/couchcryptid/river-alert-feed)"

// maxBodySize caps the page read; the real summary page is well under 1 MiB.
const maxBodySize = 8 << 20

// lastUpdatedRe matches the footer line "Datos actualizados a: 12-01-2026 13:00:00".
var lastUpdatedRe = regexp.MustCompile(`Datos actualizados a:\s*([0-9]{2}-[0-9]{2}-[0-9]{4}\s+[0-9]{2}:[0-9]{2}:[0-9]{2})`)

// Client fetches snapshots from the summary page. It implements
// pipeline.SnapshotSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a page client with the given timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		clock:      clockwork.NewRealClock(),
		logger:     logger,
	}
}

// Fetch downloads and parses the current page. Any network, HTTP, or parse
// failure is returned as-is; the caller decides whether a failed run is fatal.
func (c *Client) Fetch(ctx context.Context) (domain.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Snapshot{}, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read page: %w", err)
	}

	snap, err := Parse(body, c.clock.Now())
	if err != nil {
		return domain.Snapshot{}, err
	}
	c.logger.Debug("page fetched", "stations", len(snap.Readings), "source_updated", snap.SourceUpdated)
	return snap, nil
}

// Parse extracts the station table and footer timestamp from a page body.
// Exported separately from Fetch so the snapshot CLI and tests can run it on
// saved pages.
//
// Row layout: cell 0 is the station number, cell 1 the name (with optional
// province suffix), cell 2 the mean level. Rows with fewer than three data
// cells are skipped, the header row included. Unparseable level cells
// become absent readings, never errors.
func Parse(body []byte, fetchedAt time.Time) (domain.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("parse page: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return domain.Snapshot{}, fmt.Errorf("parse page: no station table found")
	}

	snap := domain.Snapshot{FetchedAt: fetchedAt}
	if m := lastUpdatedRe.FindSubmatch(body); len(m) == 2 {
		snap.SourceUpdated = string(m[1])
	}

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		id := strings.TrimSpace(cells.Eq(0).Text())
		if id == "" {
			return
		}
		name := collapseWhitespace(cells.Eq(1).Text())

		snap.Readings = append(snap.Readings, domain.Reading{
			Station: domain.Station{
				ID:     id,
				Name:   name,
				Region: domain.RegionFromName(name),
			},
			Level: domain.ParseLevel(cells.Eq(2).Text()),
		})
	})

	return snap, nil
}

// collapseWhitespace squashes runs of whitespace (the page nests markup
// inside name cells) into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
