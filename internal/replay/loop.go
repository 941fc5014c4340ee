package replay

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"candlestream/internal/indicator"
	"candlestream/internal/model"
	"candlestream/internal/source"

	"go.uber.org/zap"
)

// EmitFunc delivers one annotated candle to the client. Indicator values
// are keyed by indicator id; nil marks an indicator still warming up. A
// nil map means the session registered no indicators.
type EmitFunc func(c model.Candle, indicators map[string]*float64) error

// Replayer drives one replay session: it pulls candle pages from the
// source behind a monotonic cursor, annotates each candle with indicator
// values, emits it, and sleeps the paced delay before the next one.
type Replayer struct {
	Source       source.Source
	Query        source.Query // After seeds the cursor, Limit is the page size
	Registry     *indicator.Registry
	Control      *ControlState
	Tunables     Tunables
	PollInterval time.Duration // wait between fetches once caught up
	Emit         EmitFunc
	Log          *zap.Logger
}

// Run replays candles until the context is cancelled, the emit callback
// fails (client gone, a normal termination), or the source errors (fatal,
// no retry). It never finishes on its own: once caught up it polls for
// new data forever.
func (r *Replayer) Run(ctx context.Context) error {
	cursor := r.Query.After
	var prevTS int64
	havePrev := false
	emitted := 0

	for {
		if r.Control.Paused() {
			// Wait for PLAY; the poll tick is a backstop so a missed
			// wakeup cannot strand the session.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.Control.ResumeSignal():
			case <-time.After(r.PollInterval):
			}
			continue
		}

		q := r.Query
		q.After = cursor
		batch, err := r.Source.Fetch(ctx, q)
		if err != nil {
			return fmt.Errorf("fetch candles: %w", err)
		}

		if len(batch) == 0 {
			// Caught up to the end of the stored series; cursor stays put.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.PollInterval):
			}
			continue
		}

		for _, c := range batch {
			values := r.Registry.Apply(c.Close)
			if err := r.Emit(c, values); err != nil {
				r.Log.Debug("emit failed, ending replay",
					zap.Int("emitted", emitted), zap.Error(err))
				return nil
			}
			emitted++

			if havePrev {
				delta := c.Timestamp - prevTS
				if delta < 1 {
					delta = 1
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(Delay(delta, r.Control.Speed(), r.Tunables)):
				}
			}

			ts := c.Timestamp
			cursor = &ts
			prevTS = c.Timestamp
			havePrev = true
		}

		// Cooperative yield between full pages.
		runtime.Gosched()
	}
}
