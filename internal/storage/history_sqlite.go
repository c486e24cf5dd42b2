package storage

import (
	"database/sql"
	"fmt"
	"time"

	"napkeeper/internal/core/alarm"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteHistory stores nap records in a sqlite database file.
type SQLiteHistory struct {
	db *sql.DB
}

// NewSQLiteHistory opens (and if needed creates) the history database.
func NewSQLiteHistory(dbPath string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	history := &SQLiteHistory{db: db}
	if err := history.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history tables: %w", err)
	}

	return history, nil
}

func (history *SQLiteHistory) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS naps (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		alarm_at DATETIME NOT NULL,
		dismissed_at DATETIME NOT NULL,
		reason TEXT NOT NULL,
		hold_release_sec INTEGER NOT NULL,
		nap_sec INTEGER NOT NULL,
		max_sec INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_naps_started_at ON naps(started_at);
	`

	_, err := history.db.Exec(schema)
	return err
}

// Save inserts or replaces a record.
func (history *SQLiteHistory) Save(record *NapRecord) error {
	query := `
		INSERT OR REPLACE INTO naps (id, started_at, alarm_at, dismissed_at, reason, hold_release_sec, nap_sec, max_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := history.db.Exec(
		query,
		record.ID,
		record.StartedAt.UTC(),
		record.AlarmAt.UTC(),
		record.DismissedAt.UTC(),
		string(record.Reason),
		int64(record.HoldRelease/time.Second),
		int64(record.Nap/time.Second),
		int64(record.Max/time.Second),
	)
	if err != nil {
		return fmt.Errorf("save nap %s: %w", record.ID, err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (history *SQLiteHistory) Recent(limit int) ([]NapRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, started_at, alarm_at, dismissed_at, reason, hold_release_sec, nap_sec, max_sec
		FROM naps
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := history.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent naps: %w", err)
	}
	defer rows.Close()

	return history.scanRecords(rows)
}

// Stats aggregates every stored nap.
func (history *SQLiteHistory) Stats() (*HistoryStats, error) {
	query := `
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN reason = 'nap_complete' THEN 1 ELSE 0 END) as nap_complete,
			SUM(CASE WHEN reason = 'max_failsafe' THEN 1 ELSE 0 END) as max_failsafe,
			SUM(CASE WHEN reason = 'skipped' THEN 1 ELSE 0 END) as skipped
		FROM naps
	`

	var stats HistoryStats
	var napComplete, maxFailsafe, skipped sql.NullInt64

	err := history.db.QueryRow(query).Scan(
		&stats.TotalNaps,
		&napComplete,
		&maxFailsafe,
		&skipped,
	)
	if err != nil {
		return nil, fmt.Errorf("query nap stats: %w", err)
	}

	stats.NapComplete = int(napComplete.Int64)
	stats.MaxFailsafe = int(maxFailsafe.Int64)
	stats.Skipped = int(skipped.Int64)

	if stats.TotalNaps > 0 {
		records, err := history.Recent(stats.TotalNaps)
		if err != nil {
			return nil, err
		}
		var total time.Duration
		for _, record := range records {
			total += record.Slept()
		}
		stats.AverageSeconds = total.Seconds() / float64(len(records))
	}

	return &stats, nil
}

func (history *SQLiteHistory) scanRecords(rows *sql.Rows) ([]NapRecord, error) {
	var records []NapRecord

	for rows.Next() {
		var record NapRecord
		var reason string
		var holdRelease, nap, maxSec int64

		err := rows.Scan(
			&record.ID,
			&record.StartedAt,
			&record.AlarmAt,
			&record.DismissedAt,
			&reason,
			&holdRelease,
			&nap,
			&maxSec,
		)
		if err != nil {
			return nil, fmt.Errorf("scan nap: %w", err)
		}

		record.Reason = alarm.Reason(reason)
		record.HoldRelease = time.Duration(holdRelease) * time.Second
		record.Nap = time.Duration(nap) * time.Second
		record.Max = time.Duration(maxSec) * time.Second
		records = append(records, record)
	}

	return records, rows.Err()
}

// Close releases the database handle.
func (history *SQLiteHistory) Close() error {
	return history.db.Close()
}
