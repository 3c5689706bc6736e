package scanner

import (
	"testing"
	"time"
)

func TestTimerNotExpiredBeforeMinRuntime(t *testing.T) {
	timer := NewTimer(time.Second, 200*time.Millisecond, 10*time.Millisecond)
	if timer.IsExpired() {
		t.Fatalf("expected timer not expired immediately after construction")
	}
}

func TestTimerExpiresOnSilenceAfterMinRuntime(t *testing.T) {
	timer := NewTimer(time.Second, 10*time.Millisecond, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if !timer.IsExpired() {
		t.Fatalf("expected timer expired after min runtime plus silence window")
	}
}

func TestTimerMarkSeenResetsSilence(t *testing.T) {
	timer := NewTimer(time.Second, 10*time.Millisecond, 30*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	timer.MarkSeen()
	time.Sleep(15 * time.Millisecond)
	if timer.IsExpired() {
		t.Fatalf("expected MarkSeen to reset the silence window")
	}
}

func TestTimerExpiresOnHardDeadlineRegardlessOfActivity(t *testing.T) {
	timer := NewTimer(10*time.Millisecond, time.Hour, time.Hour)
	time.Sleep(20 * time.Millisecond)
	if !timer.IsExpired() {
		t.Fatalf("expected hard deadline to expire the timer regardless of silence settings")
	}
}
