package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/river-alert-feed/internal/domain"
)

// ThresholdTable maps station IDs to their alert ladders. Stations absent
// from the table are unmonitored: they never alert and never acquire state.
// The table and the hysteresis margin are loaded once at process start;
// changing them does not reinterpret already-persisted alert levels.
type ThresholdTable struct {
	hysteresis float64
	stations   map[string]domain.ThresholdSet
}

type thresholdsFile struct {
	Hysteresis float64                     `yaml:"hysteresis"`
	Stations   map[string]stationThresholds `yaml:"stations"`
}

type stationThresholds struct {
	// Name is documentation for the person editing the file; evaluation
	// keys on the station ID alone.
	Name   string    `yaml:"name,omitempty"`
	Levels []float64 `yaml:"levels"`
}

// LoadThresholds reads and validates the YAML threshold table.
func LoadThresholds(path string) (*ThresholdTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thresholds: %w", err)
	}

	var file thresholdsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse thresholds: %w", err)
	}
	if file.Hysteresis < 0 {
		return nil, fmt.Errorf("hysteresis must be >= 0, got %g", file.Hysteresis)
	}

	stations := make(map[string]domain.ThresholdSet, len(file.Stations))
	for id, st := range file.Stations {
		if id == "" {
			return nil, fmt.Errorf("station with empty id")
		}
		if len(st.Levels) != len(domain.ThresholdSet{}) {
			return nil, fmt.Errorf("station %s: want %d levels, got %d", id, len(domain.ThresholdSet{}), len(st.Levels))
		}
		ts := domain.ThresholdSet{st.Levels[0], st.Levels[1], st.Levels[2]}
		if !ts.Ascending() {
			return nil, fmt.Errorf("station %s: levels must ascend, got %v", id, st.Levels)
		}
		stations[id] = ts
	}

	return &ThresholdTable{hysteresis: file.Hysteresis, stations: stations}, nil
}

// Lookup returns the ladder for a station and whether it is monitored.
func (t *ThresholdTable) Lookup(stationID string) (domain.ThresholdSet, bool) {
	ts, ok := t.stations[stationID]
	return ts, ok
}

// Hysteresis returns the downward-rearm margin shared by all stations.
func (t *ThresholdTable) Hysteresis() float64 { return t.hysteresis }

// Len returns the number of monitored stations.
func (t *ThresholdTable) Len() int { return len(t.stations) }
