package sim

import (
	"errors"
	"fmt"
	"time"

	"napkeeper/internal/core/alarm"
	"napkeeper/internal/core/clock"
	"napkeeper/internal/core/session"
)

// Epoch is the fake wall time a replay starts at.
var Epoch = time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)

// Options tunes a replay.
type Options struct {
	// Tick is the step the clock advances by between samples.
	Tick time.Duration
	// MaxFromHold forces the max countdown to start on the first press.
	MaxFromHold bool
}

// Entry is one line of the replay timeline.
type Entry struct {
	At     time.Duration
	Kind   string
	Detail string
	Failed bool
}

// Result is the outcome of a replay.
type Result struct {
	Name     string
	Timeline []Entry
	Failures int
	Final    session.Snapshot
}

// Passed reports whether every expectation held.
func (result *Result) Passed() bool {
	return result.Failures == 0
}

type replay struct {
	fake    *clock.Fake
	machine *session.Machine
	result  *Result
}

// Run replays the scenario and checks its expectations.
func Run(scenario *Scenario, options Options) (*Result, error) {
	if options.Tick <= 0 {
		options.Tick = time.Second
	}
	config := scenario.Config.SessionConfig()
	if options.MaxFromHold {
		config.MaxFromHold = true
	}

	fake := clock.NewFake(Epoch)
	run := &replay{fake: fake, result: &Result{Name: scenario.Name}}

	armer := alarm.NewArmer(alarm.Players{Notification: &backupRecorder{replay: run}}, alarm.Options{Clock: fake})
	sessionCount := 0
	machine, err := session.New(config, armer, session.Options{
		Clock: fake,
		NewID: func() string {
			sessionCount++
			return fmt.Sprintf("sim-%d", sessionCount)
		},
	})
	if err != nil {
		return nil, err
	}
	run.machine = machine
	machine.Observe(run.observe)

	var elapsed time.Duration
	advanceTo := func(target time.Duration) {
		for elapsed < target {
			delta := options.Tick
			if remaining := target - elapsed; remaining < delta {
				delta = remaining
			}
			fake.Advance(delta)
			machine.Tick(delta)
			elapsed += delta
		}
	}

	steps, expects := scenario.Steps, scenario.Expects
	for len(steps) > 0 || len(expects) > 0 {
		// Steps at an offset run before expectations at the same offset.
		if len(steps) > 0 && (len(expects) == 0 || steps[0].At.Duration <= expects[0].At.Duration) {
			advanceTo(steps[0].At.Duration)
			run.apply(steps[0])
			steps = steps[1:]
			continue
		}
		advanceTo(expects[0].At.Duration)
		run.check(expects[0])
		expects = expects[1:]
	}
	advanceTo(scenario.End())

	run.result.Final = machine.Snapshot()
	return run.result, nil
}

func (run *replay) offset() time.Duration {
	return run.fake.Now().Sub(Epoch)
}

func (run *replay) add(kind, detail string, failed bool) {
	run.result.Timeline = append(run.result.Timeline, Entry{At: run.offset(), Kind: kind, Detail: detail, Failed: failed})
	if failed {
		run.result.Failures++
	}
}

func (run *replay) apply(step Step) {
	var err error
	switch step.Event {
	case EventPress:
		err = run.machine.PressDown()
	case EventRelease:
		err = run.machine.Release()
	case EventSkip:
		err = run.machine.Skip()
	case EventDismiss:
		err = run.machine.Dismiss()
	}
	detail := step.Event
	if errors.Is(err, session.ErrIgnoredEvent) {
		detail += " (ignored)"
	}
	run.add("input", detail, false)
}

func (run *replay) observe(event session.Event) {
	switch event.Type {
	case session.EventPhaseChange:
		run.add("phase", fmt.Sprintf("%s -> %s", event.Previous, event.Phase), false)
	case session.EventAlarmRaised:
		run.add("alarm", fmt.Sprintf("raised (%s)", event.Reason), false)
	case session.EventAlarmDismissed:
		run.add("alarm", "dismissed", false)
	}
}

func (run *replay) check(expect Expect) {
	snapshot := run.machine.Snapshot()
	var problems []string
	if expect.Phase != "" && snapshot.Phase != session.Phase(expect.Phase) {
		problems = append(problems, fmt.Sprintf("phase %s, want %s", snapshot.Phase, expect.Phase))
	}
	if expect.Reason != "" && snapshot.Reason != alarm.Reason(expect.Reason) {
		problems = append(problems, fmt.Sprintf("reason %q, want %q", snapshot.Reason, expect.Reason))
	}
	if expect.Nap != nil && snapshot.Nap != expect.Nap.Duration {
		problems = append(problems, fmt.Sprintf("nap %s, want %s", snapshot.Nap, expect.Nap.Duration))
	}
	if expect.Max != nil && snapshot.Max != expect.Max.Duration {
		problems = append(problems, fmt.Sprintf("max %s, want %s", snapshot.Max, expect.Max.Duration))
	}

	if len(problems) == 0 {
		run.add("expect", fmt.Sprintf("ok (%s)", snapshot.Phase), false)
		return
	}
	for _, problem := range problems {
		run.add("expect", problem, true)
	}
}

// backupRecorder logs the backup notifications the armer schedules.
type backupRecorder struct {
	replay *replay
}

func (recorder *backupRecorder) ScheduleAt(at time.Time) error {
	recorder.replay.add("backup", fmt.Sprintf("notification at +%s", at.Sub(Epoch)), false)
	return nil
}

func (recorder *backupRecorder) CancelPending() error {
	return nil
}
