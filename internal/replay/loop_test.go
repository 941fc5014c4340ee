package replay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"candlestream/internal/indicator"
	"candlestream/internal/model"
	"candlestream/internal/source"

	"go.uber.org/zap"
)

// fastTunables keeps paced delays in the microsecond range so loop tests
// finish quickly.
func fastTunables() Tunables {
	return Tunables{
		ReferenceDeltaMs: 900000,
		BaseDelayMs:      0.01,
		MinEmitDelayMs:   0.001,
		MaxEmitDelayMs:   0.25,
	}
}

type emitted struct {
	candle     model.Candle
	indicators map[string]*float64
}

// collector gathers emitted candles and closes done once n arrived.
type collector struct {
	mu   sync.Mutex
	got  []emitted
	n    int
	done chan struct{}
	once sync.Once
}

func newCollector(n int) *collector {
	return &collector{n: n, done: make(chan struct{})}
}

func (c *collector) emit(candle model.Candle, indicators map[string]*float64) error {
	c.mu.Lock()
	c.got = append(c.got, emitted{candle, indicators})
	reached := len(c.got) >= c.n
	c.mu.Unlock()
	if reached {
		c.once.Do(func() { close(c.done) })
	}
	return nil
}

func (c *collector) snapshot() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]emitted, len(c.got))
	copy(cp, c.got)
	return cp
}

func seedStore(store *source.MemoryStore, timestamps ...int64) {
	for i, ts := range timestamps {
		store.Add(model.Candle{
			Timestamp: ts,
			Symbol:    "BTCUSDT",
			Timeframe: "15m",
			Open:      100 + float64(i),
			High:      101 + float64(i),
			Low:       99 + float64(i),
			Close:     float64(i + 1),
			Volume:    10,
		})
	}
}

func newReplayer(store *source.MemoryStore, reg *indicator.Registry, ctrl *ControlState, emit EmitFunc, limit int) *Replayer {
	return &Replayer{
		Source:       store,
		Query:        source.Query{Symbol: "BTCUSDT", Timeframe: "15m", Limit: limit},
		Registry:     reg,
		Control:      ctrl,
		Tunables:     fastTunables(),
		PollInterval: 5 * time.Millisecond,
		Emit:         emit,
		Log:          zap.NewNop(),
	}
}

// go test -v --run TestReplayEmitsInOrderAcrossPages
func TestReplayEmitsInOrderAcrossPages(t *testing.T) {
	store := source.NewMemoryStore()
	seedStore(store, 1000, 2000, 3000, 4000, 5000)

	reg, _ := indicator.ParseSpecs("")
	col := newCollector(5)
	r := newReplayer(store, reg, NewControlState(1), col.emit, 2)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	select {
	case <-col.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for replay")
	}
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected run error: %v", err)
	}

	got := col.snapshot()[:5]
	for i, e := range got {
		want := int64((i + 1) * 1000)
		if e.candle.Timestamp != want {
			t.Errorf("emission %d: timestamp %d, want %d", i, e.candle.Timestamp, want)
		}
		if e.indicators != nil {
			t.Errorf("emission %d: expected no indicator map, got %v", i, e.indicators)
		}
	}
}

// go test -v --run TestReplayAttachesIndicators
func TestReplayAttachesIndicators(t *testing.T) {
	store := source.NewMemoryStore()
	seedStore(store, 1000, 2000, 3000) // closes 1, 2, 3

	reg, err := indicator.ParseSpecs(`[{"id":"s","type":"sma","params":{"period":2}}]`)
	if err != nil {
		t.Fatalf("parse specs: %v", err)
	}
	col := newCollector(3)
	r := newReplayer(store, reg, NewControlState(1), col.emit, 10)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	defer cancel()

	select {
	case <-col.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for replay")
	}

	got := col.snapshot()
	if v := got[0].indicators["s"]; v != nil {
		t.Errorf("first emission should be warming up, got %v", *v)
	}
	if v := got[1].indicators["s"]; v == nil || *v != 1.5 {
		t.Errorf("second emission: want 1.5, got %v", v)
	}
	if v := got[2].indicators["s"]; v == nil || *v != 2.5 {
		t.Errorf("third emission: want 2.5, got %v", v)
	}
}

// go test -v --run TestReplayPicksUpLateData
func TestReplayPicksUpLateData(t *testing.T) {
	store := source.NewMemoryStore()

	reg, _ := indicator.ParseSpecs("")
	col := newCollector(1)
	r := newReplayer(store, reg, NewControlState(1), col.emit, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	// Let the loop hit the empty-batch path first.
	time.Sleep(20 * time.Millisecond)
	if len(col.snapshot()) != 0 {
		t.Fatal("emitted candles from an empty store")
	}

	seedStore(store, 1000)
	select {
	case <-col.done:
	case <-time.After(5 * time.Second):
		t.Fatal("replay never picked up late-arriving data")
	}
}

// go test -v --run TestReplayRespectsInitialCursor
func TestReplayRespectsInitialCursor(t *testing.T) {
	store := source.NewMemoryStore()
	seedStore(store, 1000, 2000, 3000)

	reg, _ := indicator.ParseSpecs("")
	col := newCollector(2)
	r := newReplayer(store, reg, NewControlState(1), col.emit, 10)
	after := int64(1000)
	r.Query.After = &after

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	select {
	case <-col.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for replay")
	}

	got := col.snapshot()
	if got[0].candle.Timestamp != 2000 {
		t.Errorf("first emission %d, want 2000 (after=1000 is exclusive)", got[0].candle.Timestamp)
	}
}

// go test -v --run TestReplayPauseAndResume
func TestReplayPauseAndResume(t *testing.T) {
	store := source.NewMemoryStore()
	seedStore(store, 1000, 2000, 3000)

	ctrl := NewControlState(1)
	ctrl.SetPaused(true)

	reg, _ := indicator.ParseSpecs("")
	col := newCollector(3)
	r := newReplayer(store, reg, ctrl, col.emit, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	time.Sleep(30 * time.Millisecond)
	if n := len(col.snapshot()); n != 0 {
		t.Fatalf("paused session emitted %d candles", n)
	}

	ctrl.SetPaused(false)
	select {
	case <-col.done:
	case <-time.After(5 * time.Second):
		t.Fatal("replay did not resume after PLAY")
	}

	// Resumption starts from the untouched cursor: nothing skipped, nothing
	// emitted twice.
	got := col.snapshot()
	for i, e := range got[:3] {
		if want := int64((i + 1) * 1000); e.candle.Timestamp != want {
			t.Errorf("emission %d: timestamp %d, want %d", i, e.candle.Timestamp, want)
		}
	}
}

type failingSource struct{ err error }

func (f failingSource) Fetch(context.Context, source.Query) ([]model.Candle, error) {
	return nil, f.err
}

// go test -v --run TestReplayFetchErrorIsFatal
func TestReplayFetchErrorIsFatal(t *testing.T) {
	boom := errors.New("connection refused")
	reg, _ := indicator.ParseSpecs("")
	r := &Replayer{
		Source:       failingSource{err: boom},
		Query:        source.Query{Symbol: "BTCUSDT", Timeframe: "15m", Limit: 10},
		Registry:     reg,
		Control:      NewControlState(1),
		Tunables:     fastTunables(),
		PollInterval: time.Millisecond,
		Emit:         func(model.Candle, map[string]*float64) error { return nil },
		Log:          zap.NewNop(),
	}

	err := r.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error to propagate, got %v", err)
	}
}

// go test -v --run TestReplayEmitFailureEndsSessionCleanly
func TestReplayEmitFailureEndsSessionCleanly(t *testing.T) {
	store := source.NewMemoryStore()
	seedStore(store, 1000, 2000)

	reg, _ := indicator.ParseSpecs("")
	r := newReplayer(store, reg, NewControlState(1), func(model.Candle, map[string]*float64) error {
		return errors.New("client went away")
	}, 10)

	// A dead client is a normal termination, not an error.
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("expected nil error on emit failure, got %v", err)
	}
}
