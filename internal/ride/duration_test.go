package ride

import (
	"testing"
	"time"
)

func TestDurationsLiveWithClosedSpans(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	d := durations{start: start}

	d.openManual(start.Add(10 * time.Second))
	d.closeManual(start.Add(15 * time.Second))
	d.openAuto(start.Add(30 * time.Second))
	d.closeAuto(start.Add(42 * time.Second))

	elapsed, moving, manual, auto := d.live(start.Add(60 * time.Second))
	if elapsed != 60000 {
		t.Fatalf("elapsed = %d", elapsed)
	}
	if manual != 5000 || auto != 12000 {
		t.Fatalf("pauses = %d/%d", manual, auto)
	}
	if moving != elapsed-manual-auto {
		t.Fatalf("moving = %d", moving)
	}
}

func TestDurationsOpenSpanIsTransient(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	d := durations{start: start}
	d.openManual(start.Add(20 * time.Second))

	_, moving, manual, _ := d.live(start.Add(25 * time.Second))
	if manual != 5000 {
		t.Fatalf("open span manual = %d", manual)
	}
	if moving != 20000 {
		t.Fatalf("moving = %d", moving)
	}
	if d.manualClosedMs != 0 {
		t.Fatalf("live read mutated the accumulator: %d", d.manualClosedMs)
	}

	// Later read sees the span still growing.
	_, _, manual, _ = d.live(start.Add(30 * time.Second))
	if manual != 10000 {
		t.Fatalf("manual = %d", manual)
	}
}

func TestDurationsDoubleOpenAndCloseAreNoops(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	d := durations{start: start}

	d.openAuto(start.Add(time.Second))
	d.openAuto(start.Add(5 * time.Second))
	d.closeAuto(start.Add(10 * time.Second))
	d.closeAuto(start.Add(20 * time.Second))

	if d.autoClosedMs != 9000 {
		t.Fatalf("auto closed = %d", d.autoClosedMs)
	}
}

func TestDurationsCloseAll(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	d := durations{start: start}
	d.openManual(start.Add(time.Second))
	d.openAuto(start.Add(2 * time.Second))
	d.closeAll(start.Add(4 * time.Second))

	if d.manualClosedMs != 3000 || d.autoClosedMs != 2000 {
		t.Fatalf("closed = %d/%d", d.manualClosedMs, d.autoClosedMs)
	}
	if !d.manualOpenAt.IsZero() || !d.autoOpenAt.IsZero() {
		t.Fatalf("spans left open")
	}
}

func TestDurationsMovingNeverNegative(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	d := durations{start: start, manualClosedMs: 120000}

	_, moving, _, _ := d.live(start.Add(10 * time.Second))
	if moving != 0 {
		t.Fatalf("moving = %d", moving)
	}
}
