// Package sim replays scripted hold-pad sessions against the nap state
// machine on a fake clock.
package sim

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"napkeeper/internal/core/alarm"
	"napkeeper/internal/core/model"
	"napkeeper/internal/core/session"

	"github.com/BurntSushi/toml"
)

// ErrUnknownEvent indicates a step with an unsupported event name.
var ErrUnknownEvent = errors.New("unknown event")

// Event names accepted in scenario steps.
const (
	EventPress   = "press"
	EventRelease = "release"
	EventSkip    = "skip"
	EventDismiss = "dismiss"
)

// Duration is a time.Duration written as a Go duration string ("90s", "20m").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (value *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	value.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (value Duration) MarshalText() ([]byte, error) {
	return []byte(value.Duration.String()), nil
}

// Scenario is a scripted session.
type Scenario struct {
	Name    string         `toml:"name"`
	Config  ScenarioConfig `toml:"config"`
	Until   Duration       `toml:"until"`
	Steps   []Step         `toml:"step"`
	Expects []Expect       `toml:"expect"`
}

// ScenarioConfig holds the durations used for the replay.
type ScenarioConfig struct {
	HoldRelease Duration `toml:"hold_release"`
	Nap         Duration `toml:"nap"`
	Max         Duration `toml:"max"`
	MaxFromHold bool     `toml:"max_from_hold"`
}

// Step is one user action at an offset from the start.
type Step struct {
	At    Duration `toml:"at"`
	Event string   `toml:"event"`
}

// Expect asserts the session state at an offset. Empty fields are not checked.
type Expect struct {
	At     Duration  `toml:"at"`
	Phase  string    `toml:"phase"`
	Reason string    `toml:"reason"`
	Nap    *Duration `toml:"nap"`
	Max    *Duration `toml:"max"`
}

// SessionConfig converts the scenario config for the state machine.
func (config ScenarioConfig) SessionConfig() model.SessionConfig {
	return model.SessionConfig{
		HoldRelease: config.HoldRelease.Duration,
		Nap:         config.Nap.Duration,
		Max:         config.Max.Duration,
		MaxFromHold: config.MaxFromHold,
	}
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates TOML scenario data.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := toml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := scenario.validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(scenario.Steps, func(i, j int) bool {
		return scenario.Steps[i].At.Duration < scenario.Steps[j].At.Duration
	})
	sort.SliceStable(scenario.Expects, func(i, j int) bool {
		return scenario.Expects[i].At.Duration < scenario.Expects[j].At.Duration
	})
	return &scenario, nil
}

// End returns the offset the replay runs to.
func (scenario *Scenario) End() time.Duration {
	end := scenario.Until.Duration
	for _, step := range scenario.Steps {
		if step.At.Duration > end {
			end = step.At.Duration
		}
	}
	for _, expect := range scenario.Expects {
		if expect.At.Duration > end {
			end = expect.At.Duration
		}
	}
	return end
}

func (scenario *Scenario) validate() error {
	if err := scenario.Config.SessionConfig().Validate(); err != nil {
		return fmt.Errorf("scenario config: %w", err)
	}
	for i, step := range scenario.Steps {
		if step.At.Duration < 0 {
			return fmt.Errorf("step %d: negative offset %s", i+1, step.At.Duration)
		}
		switch step.Event {
		case EventPress, EventRelease, EventSkip, EventDismiss:
		default:
			return fmt.Errorf("step %d: %w %q", i+1, ErrUnknownEvent, step.Event)
		}
	}
	for i, expect := range scenario.Expects {
		if expect.At.Duration < 0 {
			return fmt.Errorf("expect %d: negative offset %s", i+1, expect.At.Duration)
		}
		if expect.Phase != "" && !knownPhase(session.Phase(expect.Phase)) {
			return fmt.Errorf("expect %d: unknown phase %q", i+1, expect.Phase)
		}
		if expect.Reason != "" && !knownReason(alarm.Reason(expect.Reason)) {
			return fmt.Errorf("expect %d: unknown reason %q", i+1, expect.Reason)
		}
	}
	return nil
}

func knownPhase(phase session.Phase) bool {
	switch phase {
	case session.PhaseIdle, session.PhaseHolding, session.PhaseReleasing, session.PhaseNapping, session.PhaseAlarming:
		return true
	}
	return false
}

func knownReason(reason alarm.Reason) bool {
	switch reason {
	case alarm.ReasonNapComplete, alarm.ReasonMaxFailsafe, alarm.ReasonSkipped:
		return true
	}
	return false
}
