package storage

import (
	"bytes"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"napkeeper/internal/core/alarm"
	"napkeeper/internal/core/clock"
	"napkeeper/internal/core/model"
	"napkeeper/internal/core/session"
)

func openTestHistory(t *testing.T) *SQLiteHistory {
	t.Helper()
	history, err := NewSQLiteHistory(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteHistory: %v", err)
	}
	t.Cleanup(func() { history.Close() })
	return history
}

func TestHistorySaveAndRecent(t *testing.T) {
	history := openTestHistory(t)
	base := time.Date(2024, 7, 1, 13, 0, 0, 0, time.UTC)

	records := []NapRecord{
		{ID: "a", StartedAt: base, AlarmAt: base.Add(25 * time.Minute), DismissedAt: base.Add(26 * time.Minute), Reason: alarm.ReasonNapComplete, HoldRelease: 10 * time.Second, Nap: 25 * time.Minute, Max: 30 * time.Minute},
		{ID: "b", StartedAt: base.Add(time.Hour), AlarmAt: base.Add(time.Hour + 30*time.Minute), DismissedAt: base.Add(time.Hour + 31*time.Minute), Reason: alarm.ReasonMaxFailsafe, HoldRelease: 10 * time.Second, Nap: 40 * time.Minute, Max: 30 * time.Minute},
		{ID: "c", StartedAt: base.Add(2 * time.Hour), AlarmAt: base.Add(2*time.Hour + 5*time.Minute), DismissedAt: base.Add(2*time.Hour + 5*time.Minute), Reason: alarm.ReasonSkipped, HoldRelease: 10 * time.Second, Nap: 20 * time.Minute, Max: 30 * time.Minute},
	}
	for i := range records {
		if err := history.Save(&records[i]); err != nil {
			t.Fatalf("Save %s: %v", records[i].ID, err)
		}
	}

	recent, err := history.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("recent = %+v, want c then b", recent)
	}
	if recent[1].Reason != alarm.ReasonMaxFailsafe || recent[1].Nap != 40*time.Minute {
		t.Fatalf("record b = %+v", recent[1])
	}
	if !recent[1].StartedAt.Equal(records[1].StartedAt) {
		t.Fatalf("StartedAt = %v, want %v", recent[1].StartedAt, records[1].StartedAt)
	}

	stats, err := history.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalNaps != 3 || stats.NapComplete != 1 || stats.MaxFailsafe != 1 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.AverageSeconds != 20*60 {
		t.Fatalf("AverageSeconds = %v, want 1200", stats.AverageSeconds)
	}
}

func TestHistoryStatsEmpty(t *testing.T) {
	history := openTestHistory(t)

	stats, err := history.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalNaps != 0 || stats.AverageSeconds != 0 {
		t.Fatalf("stats = %+v, want zero", stats)
	}
}

type memoryHistory struct {
	saved []NapRecord
	err   error
}

func (history *memoryHistory) Save(record *NapRecord) error {
	if history.err != nil {
		return history.err
	}
	history.saved = append(history.saved, *record)
	return nil
}

func (history *memoryHistory) Recent(int) ([]NapRecord, error) { return history.saved, nil }
func (history *memoryHistory) Stats() (*HistoryStats, error) { return &HistoryStats{}, nil }
func (history *memoryHistory) Close() error { return nil }

func TestRecorderSavesDismissedSessions(t *testing.T) {
	config := model.SessionConfig{HoldRelease: 5 * time.Second, Nap: 20 * time.Second, Max: 60 * time.Second}
	fake := clock.NewFake(time.Date(2024, 7, 2, 14, 0, 0, 0, time.UTC))
	armer := alarm.NewArmer(alarm.Players{}, alarm.Options{Clock: fake})
	machine, err := session.New(config, armer, session.Options{Clock: fake, NewID: func() string { return "nap-1" }})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}

	repo := &memoryHistory{}
	recorder := NewRecorder(repo, machine.Config, nil)
	var saved []string
	recorder.SetOnSaved(func(record NapRecord) { saved = append(saved, record.ID) })
	machine.Observe(recorder.Handle)

	start := fake.Now()
	_ = machine.PressDown()
	_ = machine.Release()
	for i := 0; i < 25; i++ {
		fake.Advance(time.Second)
		machine.Tick(time.Second)
	}
	fake.Advance(time.Minute)
	_ = machine.Dismiss()

	if len(repo.saved) != 1 {
		t.Fatalf("saved = %d records, want 1", len(repo.saved))
	}
	record := repo.saved[0]
	if record.ID != "nap-1" || record.Reason != alarm.ReasonNapComplete {
		t.Fatalf("record = %+v", record)
	}
	if record.Slept() != 25*time.Second {
		t.Fatalf("Slept = %v, want 25s", record.Slept())
	}
	if !record.DismissedAt.Equal(start.Add(85 * time.Second)) {
		t.Fatalf("DismissedAt = %v", record.DismissedAt)
	}
	if record.Nap != config.Nap {
		t.Fatalf("Nap = %v, want %v", record.Nap, config.Nap)
	}
	if len(saved) != 1 || saved[0] != "nap-1" {
		t.Fatalf("onSaved calls = %v", saved)
	}
}

func TestRecorderLogsSaveFailure(t *testing.T) {
	repo := &memoryHistory{err: errors.New("disk full")}
	logs := &bytes.Buffer{}
	recorder := NewRecorder(repo, func() model.SessionConfig { return model.SessionConfig{} }, log.New(logs, "", 0))
	at := time.Date(2024, 7, 2, 14, 0, 0, 0, time.UTC)

	recorder.Handle(session.Event{Type: session.EventPhaseChange, Previous: session.PhaseIdle, Phase: session.PhaseAlarming, Snapshot: session.Snapshot{SessionID: "x"}, At: at})
	recorder.Handle(session.Event{Type: session.EventAlarmRaised, Reason: alarm.ReasonSkipped, Snapshot: session.Snapshot{SessionID: "x"}, At: at})
	recorder.Handle(session.Event{Type: session.EventAlarmDismissed, Snapshot: session.Snapshot{SessionID: "x"}, At: at.Add(time.Second)})

	if len(repo.saved) != 0 {
		t.Fatal("failed save should not be recorded")
	}
	if !strings.Contains(logs.String(), "disk full") {
		t.Fatalf("logs = %q, want save failure", logs.String())
	}
}
