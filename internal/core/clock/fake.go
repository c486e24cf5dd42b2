package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests and simulations.
// Due AfterFunc callbacks run synchronously inside Advance.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	timers  []*fakeTimer
}

// NewFake creates a fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake current time.
func (fake *Fake) Now() time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.now
}

// NewTicker registers a ticker that fires as time is advanced.
func (fake *Fake) NewTicker(interval time.Duration) Ticker {
	if interval <= 0 {
		panic("clock: non-positive ticker interval")
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	ticker := &fakeTicker{
		fake:     fake,
		ch:       make(chan time.Time, 1),
		interval: interval,
		next:     fake.now.Add(interval),
	}
	fake.tickers = append(fake.tickers, ticker)
	return ticker
}

// AfterFunc schedules fn to run once the clock passes now+delay.
func (fake *Fake) AfterFunc(delay time.Duration, fn func()) Timer {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	timer := &fakeTimer{fake: fake, at: fake.now.Add(delay), fn: fn}
	fake.timers = append(fake.timers, timer)
	return timer
}

// Advance moves the clock forward, delivering ticks and firing due timers.
func (fake *Fake) Advance(delta time.Duration) {
	fake.mu.Lock()
	fake.now = fake.now.Add(delta)
	now := fake.now

	for _, ticker := range fake.tickers {
		if ticker.stopped {
			continue
		}
		for !ticker.next.After(now) {
			select {
			case ticker.ch <- ticker.next:
			default:
			}
			ticker.next = ticker.next.Add(ticker.interval)
		}
	}

	var due []*fakeTimer
	pending := fake.timers[:0]
	for _, timer := range fake.timers {
		if timer.stopped {
			continue
		}
		if !timer.at.After(now) {
			timer.stopped = true
			due = append(due, timer)
			continue
		}
		pending = append(pending, timer)
	}
	fake.timers = pending
	fake.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].at.Before(due[j].at)
	})
	for _, timer := range due {
		timer.fn()
	}
}

// PendingTimers reports how many AfterFunc callbacks are still scheduled.
func (fake *Fake) PendingTimers() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	count := 0
	for _, timer := range fake.timers {
		if !timer.stopped {
			count++
		}
	}
	return count
}

type fakeTicker struct {
	fake     *Fake
	ch       chan time.Time
	interval time.Duration
	next     time.Time
	stopped  bool
}

func (ticker *fakeTicker) C() <-chan time.Time {
	return ticker.ch
}

func (ticker *fakeTicker) Stop() {
	ticker.fake.mu.Lock()
	defer ticker.fake.mu.Unlock()
	ticker.stopped = true
}

type fakeTimer struct {
	fake    *Fake
	at      time.Time
	fn      func()
	stopped bool
}

func (timer *fakeTimer) Stop() bool {
	timer.fake.mu.Lock()
	defer timer.fake.mu.Unlock()
	if timer.stopped {
		return false
	}
	timer.stopped = true
	return true
}
