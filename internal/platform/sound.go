package platform

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// FileAlarmPrefix marks an alarm ID that names a WAV file on disk.
const FileAlarmPrefix = "file:"

const defaultSampleRate = beep.SampleRate(44100)

// ErrUnknownAlarm indicates an alarm ID with no built-in tone.
var ErrUnknownAlarm = errors.New("unknown alarm sound")

// Speaker is the audio output used by SoundPlayer.
type Speaker interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(streamers ...beep.Streamer)
	Clear()
}

type systemSpeaker struct{}

func (systemSpeaker) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}

func (systemSpeaker) Play(streamers ...beep.Streamer) {
	speaker.Play(streamers...)
}

func (systemSpeaker) Clear() {
	speaker.Clear()
}

// SoundPlayer loops the alarm sound until stopped.
type SoundPlayer struct {
	mu          sync.Mutex
	out         Speaker
	sampleRate  beep.SampleRate
	initialized bool
	volume      float64
	playing     bool
}

// NewSoundPlayer creates a player on the system speaker.
func NewSoundPlayer(volume float64) *SoundPlayer {
	return NewSoundPlayerWith(systemSpeaker{}, volume)
}

// NewSoundPlayerWith creates a player on the given output.
func NewSoundPlayerWith(out Speaker, volume float64) *SoundPlayer {
	return &SoundPlayer{
		out:        out,
		sampleRate: defaultSampleRate,
		volume:     volume,
	}
}

// SetVolume sets the volume as a base-2 exponent (0 is unchanged).
func (player *SoundPlayer) SetVolume(volume float64) {
	player.mu.Lock()
	player.volume = volume
	player.mu.Unlock()
}

// Play starts looping the named alarm, replacing any alarm already playing.
func (player *SoundPlayer) Play(alarmID string) error {
	player.mu.Lock()
	defer player.mu.Unlock()

	if !player.initialized {
		if err := player.out.Init(player.sampleRate, player.sampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
		player.initialized = true
	}

	source, err := player.sourceFor(alarmID)
	if err != nil {
		return err
	}

	if player.playing {
		player.out.Clear()
	}
	player.out.Play(&effects.Volume{
		Streamer: source,
		Base:     2,
		Volume:   player.volume,
		Silent:   false,
	})
	player.playing = true
	return nil
}

// Stop silences the alarm.
func (player *SoundPlayer) Stop() error {
	player.mu.Lock()
	defer player.mu.Unlock()
	if !player.playing {
		return nil
	}
	player.out.Clear()
	player.playing = false
	return nil
}

// Playing reports whether an alarm is looping.
func (player *SoundPlayer) Playing() bool {
	player.mu.Lock()
	defer player.mu.Unlock()
	return player.playing
}

func (player *SoundPlayer) sourceFor(alarmID string) (beep.Streamer, error) {
	if path, ok := strings.CutPrefix(alarmID, FileAlarmPrefix); ok {
		return player.loadWav(path)
	}
	pattern, ok := tonePatterns[alarmID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlarm, alarmID)
	}
	return newTone(player.sampleRate, pattern), nil
}

func (player *SoundPlayer) loadWav(path string) (beep.Streamer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alarm sound: %w", err)
	}
	defer file.Close()

	streamer, format, err := wav.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode alarm sound: %w", err)
	}
	defer streamer.Close()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	if buffer.Len() == 0 {
		return nil, fmt.Errorf("decode alarm sound: %s is empty", path)
	}

	looped := beep.Loop(-1, buffer.Streamer(0, buffer.Len()))
	if format.SampleRate == player.sampleRate {
		return looped, nil
	}
	return beep.Resample(4, format.SampleRate, player.sampleRate, looped), nil
}

// toneStep is one segment of a generated alarm pattern. Zero frequency is silence.
type toneStep struct {
	frequency float64
	length    time.Duration
}

var tonePatterns = map[string][]toneStep{
	"default": {
		{frequency: 880, length: 250 * time.Millisecond},
		{frequency: 0, length: 250 * time.Millisecond},
	},
	"siren": {
		{frequency: 660, length: 400 * time.Millisecond},
		{frequency: 880, length: 400 * time.Millisecond},
	},
	"gentle": {
		{frequency: 523.25, length: 300 * time.Millisecond},
		{frequency: 659.25, length: 300 * time.Millisecond},
		{frequency: 0, length: 900 * time.Millisecond},
	},
}

// AlarmSounds lists the built-in alarm IDs.
func AlarmSounds() []string {
	return []string{"default", "siren", "gentle"}
}

// tone is an endless beep.Streamer cycling through a pattern.
type tone struct {
	sampleRate beep.SampleRate
	steps      []toneStep
	bounds     []int
	cycle      int
	position   int
	phase      float64
}

func newTone(sampleRate beep.SampleRate, steps []toneStep) *tone {
	bounds := make([]int, len(steps))
	total := 0
	for i, step := range steps {
		total += sampleRate.N(step.length)
		bounds[i] = total
	}
	return &tone{sampleRate: sampleRate, steps: steps, bounds: bounds, cycle: total}
}

func (generator *tone) Stream(samples [][2]float64) (int, bool) {
	if generator.cycle == 0 {
		return 0, false
	}
	for i := range samples {
		step := generator.stepAt(generator.position)
		value := 0.0
		if step.frequency > 0 {
			generator.phase += 2 * math.Pi * step.frequency / float64(generator.sampleRate)
			if generator.phase > 2*math.Pi {
				generator.phase -= 2 * math.Pi
			}
			value = 0.4 * math.Sin(generator.phase)
		} else {
			generator.phase = 0
		}
		samples[i][0] = value
		samples[i][1] = value
		generator.position = (generator.position + 1) % generator.cycle
	}
	return len(samples), true
}

func (generator *tone) Err() error {
	return nil
}

func (generator *tone) stepAt(position int) toneStep {
	for i, bound := range generator.bounds {
		if position < bound {
			return generator.steps[i]
		}
	}
	return generator.steps[len(generator.steps)-1]
}
