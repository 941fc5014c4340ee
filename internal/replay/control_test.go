package replay

import (
	"testing"
	"time"
)

// go test -v --run TestControlStateSpeedFloor
func TestControlStateSpeedFloor(t *testing.T) {
	s := NewControlState(0.01)
	if got := s.Speed(); got != MinSpeed {
		t.Errorf("initial speed %v, want floor %v", got, MinSpeed)
	}

	s.SetSpeed(2.5)
	if got := s.Speed(); got != 2.5 {
		t.Errorf("speed after SetSpeed(2.5) = %v", got)
	}

	s.SetSpeed(-3)
	if got := s.Speed(); got != MinSpeed {
		t.Errorf("negative speed not floored: %v", got)
	}
}

// go test -v --run TestControlStatePauseResumeSignal
func TestControlStatePauseResumeSignal(t *testing.T) {
	s := NewControlState(1)

	s.SetPaused(true)
	if !s.Paused() {
		t.Fatal("expected paused")
	}

	resume := s.ResumeSignal()
	select {
	case <-resume:
		t.Fatal("resume signal fired while still paused")
	default:
	}

	s.SetPaused(false)
	select {
	case <-resume:
	case <-time.After(time.Second):
		t.Fatal("resume signal did not fire on PLAY")
	}
	if s.Paused() {
		t.Error("expected not paused after PLAY")
	}
}

// go test -v --run TestControlStatePlayWhilePlaying
func TestControlStatePlayWhilePlaying(t *testing.T) {
	s := NewControlState(1)

	// PLAY without a preceding PAUSE must not close the channel.
	resume := s.ResumeSignal()
	s.SetPaused(false)
	select {
	case <-resume:
		t.Fatal("resume signal fired without a pause/play transition")
	default:
	}
}
