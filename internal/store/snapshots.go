package store

import (
	"database/sql"
	"time"
)

// CreateSnapshot inserts a new snapshot and returns its ID.
func (db *DB) CreateSnapshot(command, version string) (int64, error) {
	result, err := db.conn.Exec(
		"INSERT INTO snapshots (taken_at, command, version) VALUES (?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), command, version,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLatestSnapshot returns the most recent snapshot, or nil if none exist.
func (db *DB) GetLatestSnapshot() (*Snapshot, error) {
	row := db.conn.QueryRow("SELECT id, taken_at, command, version FROM snapshots ORDER BY id DESC LIMIT 1")
	return scanSnapshot(row)
}

// GetSnapshotN returns the Nth most recent snapshot (1 = latest, 2 = previous, etc.).
func (db *DB) GetSnapshotN(n int) (*Snapshot, error) {
	row := db.conn.QueryRow(
		"SELECT id, taken_at, command, version FROM snapshots ORDER BY id DESC LIMIT 1 OFFSET ?",
		n-1,
	)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var s Snapshot
	var takenAt string
	err := row.Scan(&s.ID, &takenAt, &s.Command, &s.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	return &s, nil
}

// InsertMetric records one metric value under a snapshot.
func (db *DB) InsertMetric(snapshotID int64, scope, name string, value float64) error {
	_, err := db.conn.Exec(
		"INSERT INTO snapshot_metrics (snapshot_id, scope, metric_name, metric_value) VALUES (?, ?, ?, ?)",
		snapshotID, scope, name, value,
	)
	return err
}

// GetMetrics returns all metrics for a snapshot in insertion order.
func (db *DB) GetMetrics(snapshotID int64) ([]Metric, error) {
	rows, err := db.conn.Query(
		"SELECT id, snapshot_id, scope, metric_name, metric_value FROM snapshot_metrics WHERE snapshot_id = ? ORDER BY id",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var metrics []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.ID, &m.SnapshotID, &m.Scope, &m.MetricName, &m.MetricValue); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// Diff compares the two most recent snapshots. Metrics present in only
// one snapshot are omitted; the delta list follows the current
// snapshot's metric order.
func (db *DB) Diff() (*SnapshotDiff, error) {
	current, err := db.GetLatestSnapshot()
	if err != nil || current == nil {
		return nil, err
	}
	previous, err := db.GetSnapshotN(2)
	if err != nil || previous == nil {
		return &SnapshotDiff{Current: current}, err
	}

	currentMetrics, err := db.GetMetrics(current.ID)
	if err != nil {
		return nil, err
	}
	previousMetrics, err := db.GetMetrics(previous.ID)
	if err != nil {
		return nil, err
	}

	type key struct{ scope, name string }
	prior := make(map[key]float64, len(previousMetrics))
	for _, m := range previousMetrics {
		prior[key{m.Scope, m.MetricName}] = m.MetricValue
	}

	diff := &SnapshotDiff{Previous: previous, Current: current}
	for _, m := range currentMetrics {
		before, ok := prior[key{m.Scope, m.MetricName}]
		if !ok {
			continue
		}
		diff.Deltas = append(diff.Deltas, MetricDelta{
			Scope:    m.Scope,
			Name:     m.MetricName,
			Previous: before,
			Current:  m.MetricValue,
			Delta:    m.MetricValue - before,
		})
	}
	return diff, nil
}
