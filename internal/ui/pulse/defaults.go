package pulse

import "time"

// DefaultConfig returns a rhythm close to a phone alarm: three short buzzes,
// then a pause.
func DefaultConfig() Config {
	return Config{
		Buzz: Range{
			Min: 350 * time.Millisecond,
			Max: 450 * time.Millisecond,
		},
		Gap: Range{
			Min: 150 * time.Millisecond,
			Max: 200 * time.Millisecond,
		},
		BurstCount: 3,
		Rest: Range{
			Min: 800 * time.Millisecond,
			Max: 1200 * time.Millisecond,
		},
		DoubleBuzzChance: 0.1,
	}
}
