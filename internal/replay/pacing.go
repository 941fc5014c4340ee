// Package replay implements the pacing and control engine that turns a
// persisted candle series into a simulated real-time feed: the adaptive
// delay computation, the shared playback control state, and the
// cursor-driven replay loop.
package replay

import (
	"math"
	"time"
)

// MinSpeed is the floor applied to every speed value, both on session
// setup and on SET_SPEED updates.
const MinSpeed = 0.1

// Tunables configure the delay computation. Real inter-candle gaps run
// from minutes to hours; the reference delta maps such a gap onto the base
// delay so the whole replay fits a sub-second rhythm where speed changes
// stay perceptible.
type Tunables struct {
	ReferenceDeltaMs float64
	BaseDelayMs      float64
	MinEmitDelayMs   float64
	MaxEmitDelayMs   float64
}

// DefaultTunables returns the stock pacing configuration: a 15 minute
// candle gap replays as 400ms at 1x speed, clamped to [1ms, 250ms].
func DefaultTunables() Tunables {
	return Tunables{
		ReferenceDeltaMs: 15 * 60 * 1000,
		BaseDelayMs:      400,
		MinEmitDelayMs:   1,
		MaxEmitDelayMs:   250,
	}
}

// Delay maps the timestamp gap between two consecutive candles and the
// current playback speed to the pause inserted before the next emission.
//
// The ceiling tightens as speed rises (down to a 20ms floor) so fast
// playback moves smoothly instead of bursting in large jumps.
func Delay(deltaMs int64, speed float64, t Tunables) time.Duration {
	if deltaMs < 1 {
		deltaMs = 1
	}
	if speed < MinSpeed {
		speed = MinSpeed
	}

	normalized := (float64(deltaMs) / t.ReferenceDeltaMs) * t.BaseDelayMs
	raw := normalized / speed

	dynamicMax := t.MaxEmitDelayMs / math.Max(1, speed/10)
	if dynamicMax < 20 {
		dynamicMax = 20
	}

	delayMs := math.Min(dynamicMax, math.Max(t.MinEmitDelayMs, raw))
	return time.Duration(delayMs * float64(time.Millisecond))
}
