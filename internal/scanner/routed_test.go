package scanner

import (
	"testing"
	"time"
)

func TestCalculateDeadlineClampsToMinimum(t *testing.T) {
	now := time.Now()
	d := calculateDeadline(0)
	diff := d.Sub(now)
	if diff < routedMinScanDuration-10*time.Millisecond || diff > routedMinScanDuration+50*time.Millisecond {
		t.Fatalf("expected deadline ~%v from now, got %v", routedMinScanDuration, diff)
	}
}

func TestCalculateDeadlineClampsToMaximum(t *testing.T) {
	now := time.Now()
	d := calculateDeadline(1_000_000)
	diff := d.Sub(now)
	if diff > routedMaxScanDuration+50*time.Millisecond {
		t.Fatalf("expected deadline clamped to max %v, got %v", routedMaxScanDuration, diff)
	}
}

func TestCalculateDeadlineScalesWithTargetCount(t *testing.T) {
	now := time.Now()
	d := calculateDeadline(1000)
	diff := d.Sub(now)
	want := routedMinScanDuration + 500*time.Millisecond // 1000 * 0.5ms
	if diff < want-20*time.Millisecond || diff > want+50*time.Millisecond {
		t.Fatalf("expected deadline ~%v, got %v", want, diff)
	}
}
