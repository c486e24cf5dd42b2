package platform

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep"
)

type fakeSpeaker struct {
	inits   int
	played  []beep.Streamer
	cleared int
	initErr error
}

func (out *fakeSpeaker) Init(beep.SampleRate, int) error {
	out.inits++
	return out.initErr
}

func (out *fakeSpeaker) Play(streamers ...beep.Streamer) {
	out.played = append(out.played, streamers...)
}

func (out *fakeSpeaker) Clear() {
	out.cleared++
}

func TestSoundPlayerPlaysAndStops(t *testing.T) {
	out := &fakeSpeaker{}
	player := NewSoundPlayerWith(out, 0)

	if err := player.Play("default"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := player.Play("siren"); err != nil {
		t.Fatalf("Play again: %v", err)
	}
	if out.inits != 1 {
		t.Fatalf("speaker initialized %d times, want 1", out.inits)
	}
	if len(out.played) != 2 || out.cleared != 1 {
		t.Fatalf("played=%d cleared=%d, want 2 and 1", len(out.played), out.cleared)
	}

	if err := player.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if player.Playing() || out.cleared != 2 {
		t.Fatalf("playing=%v cleared=%d after Stop", player.Playing(), out.cleared)
	}
	if err := player.Stop(); err != nil || out.cleared != 2 {
		t.Fatalf("second Stop cleared again (err=%v)", err)
	}
}

func TestSoundPlayerErrors(t *testing.T) {
	out := &fakeSpeaker{}
	player := NewSoundPlayerWith(out, 0)

	if err := player.Play("trumpet"); !errors.Is(err, ErrUnknownAlarm) {
		t.Fatalf("unknown alarm err = %v", err)
	}
	if err := player.Play(FileAlarmPrefix + filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("missing file should fail")
	}
	if player.Playing() || len(out.played) != 0 {
		t.Fatal("failed Play should not start output")
	}

	broken := NewSoundPlayerWith(&fakeSpeaker{initErr: errors.New("no device")}, 0)
	if err := broken.Play("default"); err == nil {
		t.Fatal("speaker init failure should surface")
	}
}

func TestTonePattern(t *testing.T) {
	rate := beep.SampleRate(1000)
	generator := newTone(rate, []toneStep{
		{frequency: 250, length: 10 * time.Millisecond},
		{frequency: 0, length: 10 * time.Millisecond},
	})

	samples := make([][2]float64, 40)
	n, ok := generator.Stream(samples)
	if n != 40 || !ok {
		t.Fatalf("Stream = %d, %v", n, ok)
	}

	loud := func(from, to int) bool {
		for _, sample := range samples[from:to] {
			if math.Abs(sample[0]) > 0.1 {
				return true
			}
		}
		return false
	}
	if !loud(0, 10) || loud(10, 20) || !loud(20, 30) || loud(30, 40) {
		t.Fatalf("pattern not alternating: %v", samples)
	}
	for _, sample := range samples {
		if sample[0] != sample[1] {
			t.Fatal("channels differ")
		}
	}
}
