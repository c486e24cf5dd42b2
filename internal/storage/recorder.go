package storage

import (
	"io"
	"log"

	"napkeeper/internal/core/model"
	"napkeeper/internal/core/session"
)

// Recorder turns session events into saved NapRecords.
type Recorder struct {
	repo    HistoryRepository
	config  func() model.SessionConfig
	logger  *log.Logger
	current *NapRecord
	onSaved func(NapRecord)
}

// NewRecorder creates a recorder. config is read when a session starts.
func NewRecorder(repo HistoryRepository, config func() model.SessionConfig, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Recorder{repo: repo, config: config, logger: logger}
}

// SetOnSaved registers a callback run after each successful save.
func (recorder *Recorder) SetOnSaved(handler func(NapRecord)) {
	recorder.onSaved = handler
}

// Handle consumes one session event.
func (recorder *Recorder) Handle(event session.Event) {
	switch event.Type {
	case session.EventPhaseChange:
		if event.Previous != session.PhaseIdle {
			return
		}
		config := recorder.config()
		recorder.current = &NapRecord{
			ID:          event.Snapshot.SessionID,
			StartedAt:   event.At,
			HoldRelease: config.HoldRelease,
			Nap:         config.Nap,
			Max:         config.Max,
		}
	case session.EventAlarmRaised:
		if recorder.current == nil || recorder.current.ID != event.Snapshot.SessionID {
			return
		}
		recorder.current.AlarmAt = event.At
		recorder.current.Reason = event.Reason
	case session.EventAlarmDismissed:
		record := recorder.current
		recorder.current = nil
		if record == nil || record.ID != event.Snapshot.SessionID || record.AlarmAt.IsZero() {
			return
		}
		record.DismissedAt = event.At
		if err := recorder.repo.Save(record); err != nil {
			recorder.logger.Printf("history: %v", err)
			return
		}
		if recorder.onSaved != nil {
			recorder.onSaved(*record)
		}
	}
}

// Run handles events until the channel closes.
func (recorder *Recorder) Run(events <-chan session.Event) {
	for event := range events {
		recorder.Handle(event)
	}
}
