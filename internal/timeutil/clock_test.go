package timeutil

import (
	"testing"
	"time"
)

func TestMockTimerFiresAtDeadline(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	timer := c.NewTimer(time.Second)
	if got := c.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}

	c.Advance(500 * time.Millisecond)
	select {
	case <-timer.C():
		t.Fatal("fired early")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case at := <-timer.C():
		if !at.Equal(start.Add(time.Second)) {
			t.Errorf("fired at %v, want %v", at, start.Add(time.Second))
		}
	default:
		t.Fatal("did not fire")
	}
	if got := c.Pending(); got != 0 {
		t.Errorf("Pending() = %d after firing, want 0", got)
	}
	if timer.Stop() {
		t.Error("Stop() = true on a fired timer")
	}
}

func TestMockTimerStop(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	timer := c.NewTimer(time.Second)
	if !timer.Stop() {
		t.Error("Stop() = false on a pending timer")
	}
	if got := c.Pending(); got != 0 {
		t.Errorf("Pending() = %d after Stop, want 0", got)
	}
	c.Advance(2 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestMockZeroTimerFiresImmediately(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	select {
	case <-c.NewTimer(0).C():
	default:
		t.Fatal("zero timer did not fire")
	}
	if got := c.Until(time.Unix(-1, 0)); got != -time.Second {
		t.Errorf("Until(past) = %v, want -1s", got)
	}
}

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	timer := c.NewTimer(time.Millisecond)
	<-timer.C()
	if got := c.Until(c.Now().Add(time.Hour)); got <= 0 {
		t.Errorf("Until(now+1h) = %v, want > 0", got)
	}
}
