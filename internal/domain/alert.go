package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// AlertLevel is a station's recorded alert severity: 0 is baseline, 3 is
// maximum. Level k means thresholds 1..k have been crossed and not yet
// rearmed.
type AlertLevel int

const (
	LevelNone AlertLevel = iota
	Level1
	Level2
	Level3
)

// Valid reports whether the level is inside the 0..3 ladder. Persisted state
// is checked against this at the store boundary.
func (l AlertLevel) Valid() bool {
	return l >= LevelNone && l <= Level3
}

func (l AlertLevel) String() string {
	if !l.Valid() {
		return fmt.Sprintf("AlertLevel(%d)", int(l))
	}
	return fmt.Sprintf("level %d", int(l))
}

// ThresholdSet is one station's ascending triple of level thresholds, in
// metres. Index 0 guards Level1.
type ThresholdSet [3]float64

// At returns the threshold guarding the given level. Only levels 1..3 have
// thresholds.
func (t ThresholdSet) At(l AlertLevel) float64 {
	return t[int(l)-1]
}

// Ascending reports whether the triple is ordered T1 <= T2 <= T3.
func (t ThresholdSet) Ascending() bool {
	return t[0] <= t[1] && t[1] <= t[2]
}

// Crossing records one threshold newly met by a reading.
type Crossing struct {
	Level     AlertLevel
	Threshold float64
}

// AlertEvent is a feed-ready alert produced for one crossing. Events live
// only for the duration of a run; the feed document is their sole record.
type AlertEvent struct {
	ID          string     `json:"id"`
	StationID   string     `json:"station_id"`
	StationName string     `json:"station_name"`
	Region      string     `json:"region,omitempty"`
	Level       AlertLevel `json:"level"`
	Reading     float64    `json:"reading"`
	Threshold   float64    `json:"threshold"`
	// SourceUpdated echoes the page revision the reading came from.
	SourceUpdated string    `json:"source_updated,omitempty"`
	EmittedAt     time.Time `json:"emitted_at"`
}

// NewAlertEvent builds the event for one crossing of one reading, stamping it
// with the package clock and a deterministic ID.
func NewAlertEvent(r Reading, c Crossing, snap Snapshot) AlertEvent {
	var level float64
	if r.Level != nil {
		level = *r.Level
	}
	return AlertEvent{
		ID:            EventID(r.Station.ID, c.Level, snap.RunToken()),
		StationID:     r.Station.ID,
		StationName:   r.Station.Name,
		Region:        r.Station.Region,
		Level:         c.Level,
		Reading:       level,
		Threshold:     c.Threshold,
		SourceUpdated: snap.SourceUpdated,
		EmittedAt:     clock.Now().UTC(),
	}
}

// EventID produces a deterministic ID for one (station, level, run) triple.
// Deterministic IDs make re-publication idempotent: a feed reader that has
// seen the GUID once drops the duplicate, and downstream upserts can use
// ON CONFLICT DO NOTHING.
func EventID(stationID string, level AlertLevel, runToken string) string {
	input := fmt.Sprintf("%s|%d|%s", stationID, int(level), runToken)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("cross-%s-l%d-%s", stationID, int(level), hex.EncodeToString(hash[:8]))
}
