// Package store provides SQLite persistence for copilotwatch adoption
// snapshots, so successive runs of the track command can be compared.
package store

import "time"

// Snapshot represents a point-in-time capture of the headline metrics.
type Snapshot struct {
	ID      int64     `json:"id"`
	TakenAt time.Time `json:"taken_at"`
	Command string    `json:"command"`
	Version string    `json:"version"`
}

// Metric is one named metric value within a snapshot. Scope identifies
// the slice it was computed over, such as a division or "overall".
type Metric struct {
	ID          int64   `json:"id"`
	SnapshotID  int64   `json:"snapshot_id"`
	Scope       string  `json:"scope"`
	MetricName  string  `json:"metric_name"`
	MetricValue float64 `json:"metric_value"`
}

// MetricDelta represents the change in a single metric between snapshots.
type MetricDelta struct {
	Scope    string  `json:"scope"`
	Name     string  `json:"name"`
	Previous float64 `json:"previous"`
	Current  float64 `json:"current"`
	Delta    float64 `json:"delta"`
}

// SnapshotDiff represents the comparison between two snapshots.
type SnapshotDiff struct {
	Previous *Snapshot     `json:"previous"`
	Current  *Snapshot     `json:"current"`
	Deltas   []MetricDelta `json:"deltas"`
}
