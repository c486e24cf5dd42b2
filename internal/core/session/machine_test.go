package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"napkeeper/internal/core/alarm"
	"napkeeper/internal/core/clock"
	"napkeeper/internal/core/countdown"
	"napkeeper/internal/core/model"
)

type recordingArmer struct {
	raises    []alarm.Reason
	armed     bool
	disarms   int
	backups   []time.Time
	cancelled int
}

func (armer *recordingArmer) Raise(reason alarm.Reason) bool {
	if armer.armed {
		return false
	}
	armer.armed = true
	armer.raises = append(armer.raises, reason)
	return true
}

func (armer *recordingArmer) Disarm() bool {
	if !armer.armed {
		return false
	}
	armer.armed = false
	armer.disarms++
	return true
}

func (armer *recordingArmer) ScheduleBackup(at time.Time) {
	armer.backups = append(armer.backups, at)
}

func (armer *recordingArmer) CancelBackup() {
	armer.cancelled++
}

var scenarioConfig = model.SessionConfig{
	HoldRelease: 5 * time.Second,
	Nap:         20 * time.Second,
	Max:         60 * time.Second,
}

func newTestMachine(t *testing.T, config model.SessionConfig) (*Machine, *recordingArmer, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC))
	armer := &recordingArmer{}
	ids := 0
	machine, err := New(config, armer, Options{
		Clock: fake,
		NewID: func() string {
			ids++
			return fmt.Sprintf("session-%d", ids)
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return machine, armer, fake
}

// advance ticks the machine one second at a time, like a fixed-interval timer.
func advance(machine *Machine, fake *clock.Fake, seconds int) {
	for i := 0; i < seconds; i++ {
		fake.Advance(time.Second)
		machine.Tick(time.Second)
	}
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := scenarioConfig
	config.Nap = 0
	_, err := New(config, &recordingArmer{}, Options{})
	if !errors.Is(err, countdown.ErrInvalidDuration) {
		t.Fatalf("err = %v, want ErrInvalidDuration", err)
	}
}

func TestNapCompletesBeforeMax(t *testing.T) {
	machine, armer, fake := newTestMachine(t, scenarioConfig)

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	if machine.Phase() != PhaseReleasing {
		t.Fatalf("phase = %s, want releasing", machine.Phase())
	}

	advance(machine, fake, 5)
	if machine.Phase() != PhaseNapping {
		t.Fatalf("phase at t=5 = %s, want napping", machine.Phase())
	}

	advance(machine, fake, 19)
	if machine.Phase() != PhaseNapping {
		t.Fatalf("phase at t=24 = %s, want napping", machine.Phase())
	}

	advance(machine, fake, 1)
	if machine.Phase() != PhaseAlarming {
		t.Fatalf("phase at t=25 = %s, want alarming", machine.Phase())
	}
	if len(armer.raises) != 1 || armer.raises[0] != alarm.ReasonNapComplete {
		t.Fatalf("raises = %v, want [nap_complete]", armer.raises)
	}

	snapshot := machine.Snapshot()
	if snapshot.Max != 35*time.Second {
		t.Fatalf("max remaining = %v, want 35s", snapshot.Max)
	}
	if snapshot.MaxActive {
		t.Fatal("max countdown must not run while alarming")
	}

	advance(machine, fake, 60)
	if len(armer.raises) != 1 {
		t.Fatalf("max fired after nap alarm: %v", armer.raises)
	}
}

func TestReholdPausesReleaseButNotMax(t *testing.T) {
	machine, _, fake := newTestMachine(t, scenarioConfig)

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	advance(machine, fake, 3)

	mustNoErr(t, machine.PressDown())
	if machine.Phase() != PhaseHolding {
		t.Fatalf("phase = %s, want holding", machine.Phase())
	}

	advance(machine, fake, 10)
	snapshot := machine.Snapshot()
	if snapshot.Release != 2*time.Second {
		t.Fatalf("release remaining = %v, want 2s", snapshot.Release)
	}
	if snapshot.Max != 47*time.Second || !snapshot.MaxActive {
		t.Fatalf("max remaining = %v active=%v, want 47s active", snapshot.Max, snapshot.MaxActive)
	}

	mustNoErr(t, machine.Release())
	if machine.Snapshot().Release != 2*time.Second {
		t.Fatalf("release restarted on re-entry: %v", machine.Snapshot().Release)
	}
	if machine.Snapshot().Max != 47*time.Second {
		t.Fatalf("max restarted on re-entry: %v", machine.Snapshot().Max)
	}

	advance(machine, fake, 2)
	if machine.Phase() != PhaseNapping {
		t.Fatalf("phase = %s, want napping", machine.Phase())
	}
}

func TestRepeatedPressWhileHoldingKeepsRelease(t *testing.T) {
	machine, _, fake := newTestMachine(t, scenarioConfig)

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	advance(machine, fake, 1)
	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.PressDown())

	if machine.Phase() != PhaseHolding {
		t.Fatalf("phase = %s, want holding", machine.Phase())
	}
	if machine.Snapshot().Release != 4*time.Second {
		t.Fatalf("release remaining = %v, want 4s", machine.Snapshot().Release)
	}
}

func TestMaxShorterThanNapWins(t *testing.T) {
	tests := []struct {
		name   string
		config model.SessionConfig
	}{
		{name: "max inside release", config: model.SessionConfig{HoldRelease: 30 * time.Second, Nap: 20 * time.Second, Max: 10 * time.Second}},
		{name: "max inside nap", config: model.SessionConfig{HoldRelease: 5 * time.Second, Nap: 20 * time.Second, Max: 10 * time.Second}},
		{name: "max one second before nap", config: model.SessionConfig{HoldRelease: time.Second, Nap: 10 * time.Second, Max: 10 * time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine, armer, fake := newTestMachine(t, tt.config)
			mustNoErr(t, machine.PressDown())
			mustNoErr(t, machine.Release())

			maxSeconds := int(tt.config.Max / time.Second)
			advance(machine, fake, maxSeconds-1)
			if machine.Phase() == PhaseAlarming {
				t.Fatalf("alarm before max elapsed")
			}
			advance(machine, fake, 1)
			if machine.Phase() != PhaseAlarming {
				t.Fatalf("phase = %s at max, want alarming", machine.Phase())
			}
			if armer.raises[0] != alarm.ReasonMaxFailsafe {
				t.Fatalf("reason = %s, want max_failsafe", armer.raises[0])
			}
		})
	}
}

func TestMaxWinsTieWithNap(t *testing.T) {
	config := model.SessionConfig{HoldRelease: 5 * time.Second, Nap: 20 * time.Second, Max: 25 * time.Second}
	machine, armer, fake := newTestMachine(t, config)

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	advance(machine, fake, 25)

	if len(armer.raises) != 1 || armer.raises[0] != alarm.ReasonMaxFailsafe {
		t.Fatalf("raises = %v, want [max_failsafe]", armer.raises)
	}
}

func TestOverflowCarriesIntoNap(t *testing.T) {
	machine, armer, _ := newTestMachine(t, scenarioConfig)

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	machine.Tick(8 * time.Second)

	if machine.Phase() != PhaseNapping {
		t.Fatalf("phase = %s, want napping", machine.Phase())
	}
	if machine.Snapshot().Nap != 17*time.Second {
		t.Fatalf("nap remaining = %v, want 17s", machine.Snapshot().Nap)
	}

	machine.Tick(17 * time.Second)
	if len(armer.raises) != 1 || armer.raises[0] != alarm.ReasonNapComplete {
		t.Fatalf("raises = %v, want [nap_complete]", armer.raises)
	}
}

func TestHoldingWithoutReleaseNeverStartsMax(t *testing.T) {
	config := scenarioConfig
	config.Max = 10 * time.Second
	machine, armer, fake := newTestMachine(t, config)

	mustNoErr(t, machine.PressDown())
	advance(machine, fake, 120)

	if machine.Phase() != PhaseHolding {
		t.Fatalf("phase = %s, want holding", machine.Phase())
	}
	if len(armer.raises) != 0 {
		t.Fatalf("raises = %v, want none", armer.raises)
	}
}

func TestMaxFromHoldBoundsHolding(t *testing.T) {
	config := scenarioConfig
	config.Max = 10 * time.Second
	config.MaxFromHold = true
	machine, armer, fake := newTestMachine(t, config)

	mustNoErr(t, machine.PressDown())
	if !machine.Snapshot().MaxActive {
		t.Fatal("max should start on press down")
	}
	advance(machine, fake, 4)
	mustNoErr(t, machine.Release())
	if machine.Snapshot().Max != 6*time.Second {
		t.Fatalf("max restarted on release: %v", machine.Snapshot().Max)
	}

	mustNoErr(t, machine.PressDown())
	advance(machine, fake, 6)
	if machine.Phase() != PhaseAlarming || armer.raises[0] != alarm.ReasonMaxFailsafe {
		t.Fatalf("phase=%s raises=%v, want alarming by max", machine.Phase(), armer.raises)
	}
}

func TestIgnoredEvents(t *testing.T) {
	machine, _, fake := newTestMachine(t, scenarioConfig)

	if err := machine.Release(); !errors.Is(err, ErrIgnoredEvent) {
		t.Fatalf("release while idle err = %v", err)
	}
	if err := machine.Dismiss(); !errors.Is(err, ErrIgnoredEvent) {
		t.Fatalf("dismiss while idle err = %v", err)
	}

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	advance(machine, fake, 5)
	if err := machine.PressDown(); !errors.Is(err, ErrIgnoredEvent) {
		t.Fatalf("press while napping err = %v", err)
	}
	if machine.Phase() != PhaseNapping {
		t.Fatalf("phase = %s, want napping", machine.Phase())
	}
}

func TestSkipFromEveryActivePhase(t *testing.T) {
	setups := map[Phase]func(*Machine, *clock.Fake){
		PhaseIdle: func(*Machine, *clock.Fake) {},
		PhaseHolding: func(machine *Machine, _ *clock.Fake) {
			_ = machine.PressDown()
		},
		PhaseReleasing: func(machine *Machine, _ *clock.Fake) {
			_ = machine.PressDown()
			_ = machine.Release()
		},
		PhaseNapping: func(machine *Machine, fake *clock.Fake) {
			_ = machine.PressDown()
			_ = machine.Release()
			advance(machine, fake, 5)
		},
	}

	for phase, setup := range setups {
		t.Run(string(phase), func(t *testing.T) {
			machine, armer, fake := newTestMachine(t, scenarioConfig)
			setup(machine, fake)
			if machine.Phase() != phase {
				t.Fatalf("setup reached %s, want %s", machine.Phase(), phase)
			}

			mustNoErr(t, machine.Skip())
			if machine.Phase() != PhaseAlarming {
				t.Fatalf("phase = %s, want alarming", machine.Phase())
			}
			if len(armer.raises) != 1 || armer.raises[0] != alarm.ReasonSkipped {
				t.Fatalf("raises = %v, want [skipped]", armer.raises)
			}
			if machine.Snapshot().SessionID == "" {
				t.Fatal("skip should belong to a session")
			}
			if err := machine.Skip(); !errors.Is(err, ErrIgnoredEvent) {
				t.Fatalf("second skip err = %v", err)
			}
		})
	}
}

func TestDismissResetsSession(t *testing.T) {
	machine, armer, fake := newTestMachine(t, scenarioConfig)

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	advance(machine, fake, 25)
	first := machine.Snapshot().SessionID

	mustNoErr(t, machine.Dismiss())
	snapshot := machine.Snapshot()
	if snapshot.Phase != PhaseIdle {
		t.Fatalf("phase = %s, want idle", snapshot.Phase)
	}
	if snapshot.Release != 0 || snapshot.Nap != 0 || snapshot.Max != 0 || snapshot.MaxActive {
		t.Fatalf("countdowns not reset: %+v", snapshot)
	}
	if armer.disarms != 1 {
		t.Fatalf("disarms = %d, want 1", armer.disarms)
	}

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	if machine.Snapshot().SessionID == first {
		t.Fatal("new session reused the previous id")
	}
	if machine.Snapshot().Max != scenarioConfig.Max {
		t.Fatalf("max = %v, want a fresh %v", machine.Snapshot().Max, scenarioConfig.Max)
	}
	advance(machine, fake, 25)
	if len(armer.raises) != 2 {
		t.Fatalf("raises = %v, want two sessions alarming", armer.raises)
	}
}

func TestBackupNotificationTracksWakeTime(t *testing.T) {
	machine, armer, fake := newTestMachine(t, scenarioConfig)
	start := fake.Now()

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	if got := armer.backups[len(armer.backups)-1]; !got.Equal(start.Add(25 * time.Second)) {
		t.Fatalf("backup at release = %v, want t+25s", got)
	}

	advance(machine, fake, 5)
	if got := armer.backups[len(armer.backups)-1]; !got.Equal(start.Add(25 * time.Second)) {
		t.Fatalf("backup at nap start = %v, want t+25s", got)
	}

	config := scenarioConfig
	config.Max = 12 * time.Second
	short, shortArmer, shortClock := newTestMachine(t, config)
	mustNoErr(t, short.PressDown())
	mustNoErr(t, short.Release())
	if got := shortArmer.backups[len(shortArmer.backups)-1]; !got.Equal(shortClock.Now().Add(12 * time.Second)) {
		t.Fatalf("backup with short max = %v, want max deadline", got)
	}
}

func TestBackupAfterOverflowUsesNapRemaining(t *testing.T) {
	machine, armer, fake := newTestMachine(t, scenarioConfig)
	start := fake.Now()

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	fake.Advance(4 * time.Second)
	machine.Tick(4 * time.Second)
	fake.Advance(3 * time.Second)
	machine.Tick(3 * time.Second)

	if machine.Phase() != PhaseNapping || machine.Snapshot().Nap != 18*time.Second {
		t.Fatalf("phase = %s nap = %v, want napping with 18s left", machine.Phase(), machine.Snapshot().Nap)
	}
	if got := armer.backups[len(armer.backups)-1]; !got.Equal(start.Add(25 * time.Second)) {
		t.Fatalf("backup = +%v, want +25s", got.Sub(start))
	}
}

func TestObserversReceiveEvents(t *testing.T) {
	machine, _, fake := newTestMachine(t, scenarioConfig)

	var events []Event
	stop := machine.Observe(func(event Event) { events = append(events, event) })

	mustNoErr(t, machine.PressDown())
	mustNoErr(t, machine.Release())
	advance(machine, fake, 25)
	mustNoErr(t, machine.Dismiss())
	stop()
	mustNoErr(t, machine.PressDown())

	var phases []Phase
	var raised, dismissed int
	for _, event := range events {
		switch event.Type {
		case EventPhaseChange:
			phases = append(phases, event.Phase)
		case EventAlarmRaised:
			raised++
			if event.Reason != alarm.ReasonNapComplete {
				t.Fatalf("raised reason = %s", event.Reason)
			}
		case EventAlarmDismissed:
			dismissed++
			if event.Snapshot.SessionID == "" {
				t.Fatal("dismiss event lost the session id")
			}
		}
	}

	want := []Phase{PhaseHolding, PhaseReleasing, PhaseNapping, PhaseAlarming, PhaseIdle}
	if fmt.Sprint(phases) != fmt.Sprint(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	if raised != 1 || dismissed != 1 {
		t.Fatalf("raised=%d dismissed=%d, want 1 each", raised, dismissed)
	}
}
