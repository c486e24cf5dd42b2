package pulse

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
)

var (
	onFrame  = fyne.NewStaticResource("on.svg", []byte("on"))
	offFrame = fyne.NewStaticResource("off.svg", []byte("off"))
)

type frameLog struct {
	mu     sync.Mutex
	frames []fyne.Resource
}

func (log *frameLog) record(resource fyne.Resource) {
	log.mu.Lock()
	log.frames = append(log.frames, resource)
	log.mu.Unlock()
}

func (log *frameLog) snapshot() []fyne.Resource {
	log.mu.Lock()
	defer log.mu.Unlock()
	return append([]fyne.Resource(nil), log.frames...)
}

func fastConfig() Config {
	return Config{
		Buzz:       Range{Min: time.Millisecond, Max: time.Millisecond},
		Gap:        Range{Min: time.Millisecond, Max: time.Millisecond},
		BurstCount: 2,
		Rest:       Range{Min: 2 * time.Millisecond, Max: 2 * time.Millisecond},
	}
}

func TestRangeRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	fixed := Range{Min: time.Second, Max: time.Second}
	if got := fixed.Random(rng); got != time.Second {
		t.Fatalf("fixed range = %v", got)
	}
	span := Range{Min: time.Second, Max: 2 * time.Second}
	for i := 0; i < 100; i++ {
		got := span.Random(rng)
		if got < span.Min || got >= span.Max {
			t.Fatalf("Random = %v outside [%v, %v)", got, span.Min, span.Max)
		}
	}
}

func TestTriggerAlternatesUntilStopped(t *testing.T) {
	frames := &frameLog{}
	engine := New(fastConfig(), Frames{On: onFrame, Off: offFrame}, frames.record)

	if err := engine.Trigger(); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(frames.snapshot()) < 6 {
		if time.Now().After(deadline) {
			t.Fatal("engine produced too few frames")
		}
		time.Sleep(time.Millisecond)
	}
	if !engine.Active() {
		t.Fatal("engine should be active")
	}

	if err := engine.StopVibration(); err != nil {
		t.Fatalf("StopVibration: %v", err)
	}
	stopped := frames.snapshot()
	if stopped[0] != onFrame {
		t.Fatalf("first frame = %v, want on", stopped[0].Name())
	}
	if stopped[len(stopped)-1] != offFrame {
		t.Fatal("last frame after stop should be off")
	}

	time.Sleep(10 * time.Millisecond)
	if len(frames.snapshot()) != len(stopped) {
		t.Fatal("frames kept coming after stop")
	}
	if engine.Active() {
		t.Fatal("engine still active")
	}
}

func TestDisabledEngineStaysQuiet(t *testing.T) {
	frames := &frameLog{}
	engine := New(fastConfig(), Frames{On: onFrame, Off: offFrame}, frames.record)
	engine.SetEnabled(false)

	if err := engine.Trigger(); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if len(frames.snapshot()) != 0 || engine.Active() {
		t.Fatal("disabled engine pulsed")
	}
	if err := engine.StopVibration(); err != nil {
		t.Fatalf("StopVibration: %v", err)
	}
	if len(frames.snapshot()) != 0 {
		t.Fatal("stop on idle engine should not draw")
	}
}
