// Command snapshot fetches (or reads) a SAIH river summary page, parses it
// with the service's own domain code, and dumps the readings as JSON. It
// mutates no state, making it safe to run against production config while
// debugging threshold or parsing questions.
//
// Usage:
//
//	go run ./cmd/snapshot                       # fetch the live page
//	go run ./cmd/snapshot -file saved_page.html # parse a saved copy
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/river-alert-feed/internal/adapter/saih"
	"github.com/couchcryptid/river-alert-feed/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	url := flag.String("url", "https://www.redhidrosurmedioambiente.es/saih/resumen/rios", "summary page URL")
	file := flag.String("file", "", "parse a saved HTML file instead of fetching")
	timeout := flag.Duration("timeout", 30*time.Second, "fetch timeout")
	flag.Parse()

	var (
		snap domain.Snapshot
		err  error
	)
	if *file != "" {
		var body []byte
		body, err = os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("read page file: %w", err)
		}
		snap, err = saih.Parse(body, time.Now().UTC())
	} else {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		client := saih.NewClient(*url, *timeout, logger)
		snap, err = client.Fetch(context.Background())
	}
	if err != nil {
		return err
	}

	absent := 0
	for _, r := range snap.Readings {
		if r.Level == nil {
			absent++
		}
	}
	fmt.Fprintf(os.Stderr, "%d stations (%d without a reading), data updated %q\n",
		len(snap.Readings), absent, snap.SourceUpdated)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
