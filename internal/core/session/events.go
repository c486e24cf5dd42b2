package session

import (
	"time"

	"napkeeper/internal/core/alarm"
)

// Phase is the active stage of a nap session.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseHolding   Phase = "holding"
	PhaseReleasing Phase = "releasing"
	PhaseNapping   Phase = "napping"
	PhaseAlarming  Phase = "alarming"
)

// EventType defines the type of session event.
type EventType string

const (
	EventPhaseChange    EventType = "phase_change"
	EventProgress       EventType = "progress"
	EventAlarmRaised    EventType = "alarm_raised"
	EventAlarmDismissed EventType = "alarm_dismissed"
)

// Snapshot is the observable state shown by display collaborators.
type Snapshot struct {
	SessionID string
	Phase     Phase
	Release   time.Duration
	Nap       time.Duration
	Max       time.Duration
	MaxActive bool
	Reason    alarm.Reason
}

// Event represents a session update for observers.
type Event struct {
	Type     EventType
	Phase    Phase
	Previous Phase
	Snapshot Snapshot
	Reason   alarm.Reason
	At       time.Time
}
