package storage

import (
	"time"

	"napkeeper/internal/core/alarm"
)

// NapRecord is one finished nap session.
type NapRecord struct {
	ID          string
	StartedAt   time.Time
	AlarmAt     time.Time
	DismissedAt time.Time
	Reason      alarm.Reason
	HoldRelease time.Duration
	Nap         time.Duration
	Max         time.Duration
}

// Slept returns the time between the first press and the alarm.
func (record NapRecord) Slept() time.Duration {
	if record.AlarmAt.Before(record.StartedAt) {
		return 0
	}
	return record.AlarmAt.Sub(record.StartedAt)
}

// HistoryStats summarizes stored naps.
type HistoryStats struct {
	TotalNaps      int
	NapComplete    int
	MaxFailsafe    int
	Skipped        int
	AverageSeconds float64
}

// HistoryRepository persists finished naps.
type HistoryRepository interface {
	Save(record *NapRecord) error

	Recent(limit int) ([]NapRecord, error)

	Stats() (*HistoryStats, error)

	Close() error
}
