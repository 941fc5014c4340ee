package replay

import "sync"

// ControlState is the playback state shared between a session's control
// listener (writer) and its replay loop (reader). It is the only mutable
// state with two concurrent accessors, so every field lives behind the
// mutex.
type ControlState struct {
	mu     sync.RWMutex
	speed  float64
	paused bool
	resume chan struct{}
}

// NewControlState creates control state with the given initial speed,
// floored at MinSpeed.
func NewControlState(speed float64) *ControlState {
	if speed < MinSpeed {
		speed = MinSpeed
	}
	return &ControlState{
		speed:  speed,
		resume: make(chan struct{}),
	}
}

// Speed returns the current playback speed.
func (s *ControlState) Speed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speed
}

// SetSpeed updates the playback speed, flooring it at MinSpeed.
func (s *ControlState) SetSpeed(v float64) {
	if v < MinSpeed {
		v = MinSpeed
	}
	s.mu.Lock()
	s.speed = v
	s.mu.Unlock()
}

// Paused reports whether playback is paused.
func (s *ControlState) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// SetPaused flips the paused flag. A pause→play transition closes the
// current resume channel so a waiting replay loop wakes immediately
// instead of sitting out its poll interval.
func (s *ControlState) SetPaused(paused bool) {
	s.mu.Lock()
	if s.paused && !paused {
		close(s.resume)
		s.resume = make(chan struct{})
	}
	s.paused = paused
	s.mu.Unlock()
}

// ResumeSignal returns a channel closed on the next pause→play transition.
// Callers must re-fetch it after each wakeup.
func (s *ControlState) ResumeSignal() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resume
}
