package models

import (
	"time"
)

// Event Bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // dataset.imported, dataset.reloaded
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventDatasetImported = "dataset.imported"
	EventDatasetReloaded = "dataset.reloaded"
)

// LoadStats describes one pass over a dataset source.
type LoadStats struct {
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Rows      int       `json:"rows"`
	Loaded    int       `json:"loaded"`
	Discarded int       `json:"discarded"`
	LoadedAt  time.Time `json:"loaded_at"`
}

func (s LoadStats) EventData() map[string]interface{} {
	return map[string]interface{}{
		"source":    s.Source,
		"version":   s.Version,
		"rows":      s.Rows,
		"loaded":    s.Loaded,
		"discarded": s.Discarded,
	}
}
