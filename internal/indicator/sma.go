package indicator

// SMA computes a simple moving average over a sliding window using a
// running sum, so each update is O(1) in arithmetic.
type SMA struct {
	period int
	window []float64
	sum    float64
}

// NewSMA creates an SMA with the given period. Periods below 1 are raised
// to 1.
func NewSMA(period int) *SMA {
	if period < 1 {
		period = 1
	}
	return &SMA{
		period: period,
		window: make([]float64, 0, period+1),
	}
}

// Update pushes a value into the window, evicting the oldest once the
// window exceeds the period. Returns ok=false until the window has filled.
func (s *SMA) Update(value float64) (float64, bool) {
	s.window = append(s.window, value)
	s.sum += value
	if len(s.window) > s.period {
		s.sum -= s.window[0]
		s.window = s.window[1:]
	}
	if len(s.window) < s.period {
		return 0, false
	}
	return s.sum / float64(s.period), true
}

// Period returns the configured window length.
func (s *SMA) Period() int { return s.period }
