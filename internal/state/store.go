// Package state persists the per-station alert levels between runs. The
// state file is the system's only memory: everything else is recomputed from
// the next snapshot.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/river-alert-feed/internal/domain"
)

// State is the persisted mapping plus the heartbeat throttle marker.
type State struct {
	// Levels maps station ID to the last alerted level, including explicit
	// zeros. Stations never evaluated have no entry and default to zero.
	Levels map[string]domain.AlertLevel `json:"levels"`
	// LastHeartbeatDate is the UTC calendar day ("2006-01-02") of the most
	// recent fallback feed item, used by the daily heartbeat policy.
	LastHeartbeatDate string `json:"last_heartbeat_date,omitempty"`
}

// NewState returns an empty state, the valid ground truth for a fresh or
// unreadable install.
func NewState() *State {
	return &State{Levels: make(map[string]domain.AlertLevel)}
}

// Level returns the recorded level for a station, zero when unseen.
func (s *State) Level(stationID string) domain.AlertLevel {
	return s.Levels[stationID]
}

// SetLevel records a station's level. Out-of-range values are a programming
// error upstream and are rejected.
func (s *State) SetLevel(stationID string, level domain.AlertLevel) error {
	if !level.Valid() {
		return fmt.Errorf("alert level out of range for station %s: %d", stationID, int(level))
	}
	s.Levels[stationID] = level
	return nil
}

// Store reads and writes the state file.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store bound to one file path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load reads the state file. A missing file yields an empty state; a corrupt
// one is logged and also yields an empty state, never an error. The empty
// mapping is always valid ground truth and correctness re-derives from
// subsequent readings. Entries with levels outside 0..3 are dropped with a
// warning.
func (s *Store) Load() *State {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewState()
	}
	if err != nil {
		s.logger.Warn("state file unreadable, starting empty", "path", s.path, "error", err)
		return NewState()
	}

	var loaded State
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.logger.Warn("state file corrupt, starting empty", "path", s.path, "error", err)
		return NewState()
	}
	if loaded.Levels == nil {
		loaded.Levels = make(map[string]domain.AlertLevel)
	}
	for id, level := range loaded.Levels {
		if !level.Valid() {
			s.logger.Warn("dropping out-of-range level from state", "station", id, "level", int(level))
			delete(loaded.Levels, id)
		}
	}
	return &loaded
}

// Save writes the full state atomically: temp file in the same directory,
// then rename. A crash mid-write leaves the previous file intact.
func (s *Store) Save(st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
