package domain

import "github.com/jonboulle/clockwork"

// clock supplies ProcessedAt stamps. Tests freeze it via SetClock so enriched
// rows compare byte-for-byte.
var clock = clockwork.NewRealClock()

// SetClock swaps the package time source. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
