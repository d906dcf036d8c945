// Package pipeline orchestrates one fetch-evaluate-publish cycle and the
// poll loop around it. All alert state mutation happens here, exactly once
// per station per cycle; the crossing engine itself stays pure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/river-alert-feed/internal/config"
	"github.com/couchcryptid/river-alert-feed/internal/domain"
	"github.com/couchcryptid/river-alert-feed/internal/observability"
	"github.com/couchcryptid/river-alert-feed/internal/state"
)

// SnapshotSource supplies one snapshot of the river page per call.
type SnapshotSource interface {
	Fetch(ctx context.Context) (domain.Snapshot, error)
}

// FeedEmitter renders and persists the feed document for one run.
type FeedEmitter interface {
	Emit(events []domain.AlertEvent, heartbeat bool, now time.Time) error
}

// AlertPublisher forwards alert events to an external sink.
type AlertPublisher interface {
	Publish(ctx context.Context, events []domain.AlertEvent) error
}

// Deps wires a Pipeline. Publisher may be nil to disable publishing; Clock
// may be nil for real time.
type Deps struct {
	Source    SnapshotSource
	Emitter   FeedEmitter
	Publisher AlertPublisher
	Table     *config.ThresholdTable
	Store     *state.Store
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Clock     clockwork.Clock

	PollInterval    time.Duration
	RunOnce         bool
	Regions         []string
	HeartbeatPolicy string
}

// Pipeline runs the poll loop. Single-threaded by design: one cycle at a
// time, no shared mutable state beyond the state file it owns.
type Pipeline struct {
	source    SnapshotSource
	emitter   FeedEmitter
	publisher AlertPublisher
	table     *config.ThresholdTable
	store     *state.Store
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	pollInterval    time.Duration
	runOnce         bool
	regions         map[string]struct{}
	heartbeatPolicy string

	st    *state.State
	ready atomic.Bool
}

// New creates a Pipeline from its dependencies.
func New(deps Deps) *Pipeline {
	clk := deps.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	var regions map[string]struct{}
	if len(deps.Regions) > 0 {
		regions = make(map[string]struct{}, len(deps.Regions))
		for _, r := range deps.Regions {
			regions[r] = struct{}{}
		}
	}
	return &Pipeline{
		source:          deps.Source,
		emitter:         deps.Emitter,
		publisher:       deps.Publisher,
		table:           deps.Table,
		store:           deps.Store,
		logger:          deps.Logger,
		metrics:         deps.Metrics,
		clock:           clk,
		pollInterval:    deps.PollInterval,
		runOnce:         deps.RunOnce,
		regions:         regions,
		heartbeatPolicy: deps.HeartbeatPolicy,
	}
}

// CheckReadiness returns nil once at least one cycle has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no completed cycle yet")
	}
	return nil
}

// Run loads the alert state and executes cycles until the context is
// cancelled. In run-once mode a single cycle runs and its error is returned;
// in loop mode a failed cycle is logged and the loop continues at the next
// poll interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.st = p.store.Load()
	p.logger.Info("pipeline started",
		"monitored_stations", p.table.Len(),
		"known_stations", len(p.st.Levels),
		"poll_interval", p.pollInterval,
		"run_once", p.runOnce,
	)

	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	for {
		err := p.runCycle(ctx)
		switch {
		case err == nil:
			p.metrics.Runs.WithLabelValues("success").Inc()
		case ctx.Err() != nil:
			return nil
		default:
			p.metrics.Runs.WithLabelValues("error").Inc()
			p.logger.Error("cycle failed", "error", err)
		}

		if p.runOnce {
			return err
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-p.clock.After(p.pollInterval):
		}
	}
}

// runCycle performs one snapshot end-to-end: fetch, evaluate every monitored
// reading against stored levels, emit the feed, publish, persist.
func (p *Pipeline) runCycle(ctx context.Context) error {
	start := p.clock.Now()

	snap, err := p.source.Fetch(ctx)
	if err != nil {
		p.metrics.FetchErrors.Inc()
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	p.metrics.StationsParsed.Set(float64(len(snap.Readings)))

	events := p.evaluate(snap)

	now := p.clock.Now().UTC()
	heartbeat := len(events) == 0 && p.shouldHeartbeat(now)

	if err := p.emitter.Emit(events, heartbeat, now); err != nil {
		return fmt.Errorf("emit feed: %w", err)
	}
	if heartbeat {
		p.metrics.Heartbeats.Inc()
		p.st.LastHeartbeatDate = now.Format("2006-01-02")
	}

	// Publishing is best-effort once the feed is out: the feed is the system
	// of record, and event IDs let downstream consumers dedupe a later
	// re-publish.
	if p.publisher != nil && len(events) > 0 {
		if err := p.publisher.Publish(ctx, events); err != nil {
			p.metrics.PublishErrors.Inc()
			p.logger.Warn("publish alerts failed", "error", err, "events", len(events))
		}
	}

	// Persist the full mapping unconditionally, quiet runs included, so
	// recorded levels are never silently lost.
	if err := p.store.Save(p.st); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}

	p.metrics.CycleDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("cycle complete",
		"stations", len(snap.Readings),
		"alerts", len(events),
		"heartbeat", heartbeat,
		"source_updated", snap.SourceUpdated,
	)
	return nil
}

// evaluate runs the crossing engine over every monitored reading and returns
// the run's alert events in page order, ascending by level within a station.
func (p *Pipeline) evaluate(snap domain.Snapshot) []domain.AlertEvent {
	var events []domain.AlertEvent

	for _, r := range snap.Readings {
		if !p.regionAllowed(r.Station.Region) {
			continue
		}
		thresholds, monitored := p.table.Lookup(r.Station.ID)
		if !monitored {
			// Unmonitored stations are invisible: no event, no state entry.
			continue
		}

		if r.Level == nil {
			p.metrics.AbsentReadings.Inc()
		}

		prev := p.st.Level(r.Station.ID)
		next, crossings := domain.Evaluate(r.Level, thresholds, prev, p.table.Hysteresis())
		if next < prev {
			p.metrics.Rearms.Inc()
			p.logger.Info("station rearmed",
				"station", r.Station.ID, "from", int(prev), "to", int(next))
		}
		if err := p.st.SetLevel(r.Station.ID, next); err != nil {
			// Unreachable with a well-behaved engine; never abort the run.
			p.logger.Warn("discarding invalid level", "station", r.Station.ID, "error", err)
			continue
		}

		for _, c := range crossings {
			event := domain.NewAlertEvent(r, c, snap)
			events = append(events, event)
			p.metrics.AlertsEmitted.WithLabelValues(strconv.Itoa(int(c.Level))).Inc()
			p.logger.Info("threshold crossed",
				"station", r.Station.ID,
				"name", r.Station.Name,
				"level", int(c.Level),
				"reading", event.Reading,
				"threshold", c.Threshold,
			)
		}
	}

	return events
}

func (p *Pipeline) regionAllowed(region string) bool {
	if p.regions == nil {
		return true
	}
	_, ok := p.regions[region]
	return ok
}

// shouldHeartbeat decides whether a quiet run gets a fallback feed item.
func (p *Pipeline) shouldHeartbeat(now time.Time) bool {
	if p.heartbeatPolicy == config.HeartbeatEveryRun {
		return true
	}
	return p.st.LastHeartbeatDate != now.Format("2006-01-02")
}
