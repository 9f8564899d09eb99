package geo

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Paris (48.8566, 2.3522) to Lyon (45.764, 4.8357) ~ 390-400 km
	d := HaversineKm(48.8566, 2.3522, 45.764, 4.8357)
	if d < 380 || d > 410 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineSymmetric(t *testing.T) {
	a := HaversineKm(48.8566, 2.3522, 45.764, 4.8357)
	b := HaversineKm(45.764, 4.8357, 48.8566, 2.3522)
	if a != b {
		t.Fatalf("distance not symmetric: %v vs %v", a, b)
	}
}

func TestHaversineIdenticalPoints(t *testing.T) {
	if d := HaversineKm(48.8566, 2.3522, 48.8566, 2.3522); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestHaversineTenthOfDegreeLatitude(t *testing.T) {
	// 0.1 deg of latitude is ~11.1 km anywhere on the globe.
	d := HaversineM(48.0, 2.0, 48.1, 2.0)
	if math.Abs(d-11100) > 111 {
		t.Fatalf("expected ~11100 m within 1%%, got %v", d)
	}
}

func TestAverageSpeedMps(t *testing.T) {
	if v := AverageSpeedMps(100, 0); v != 0 {
		t.Fatalf("expected zero speed for zero duration, got %v", v)
	}
	if v := AverageSpeedMps(100, -5); v != 0 {
		t.Fatalf("expected zero speed for negative duration, got %v", v)
	}
	if v := AverageSpeedMps(20, 3000); math.Abs(v-20.0/3.0) > 1e-9 {
		t.Fatalf("unexpected average speed: %v", v)
	}
}

func TestMaxSpeed(t *testing.T) {
	if v := MaxSpeed(5, 3); v != 5 {
		t.Fatalf("max speed decreased: %v", v)
	}
	if v := MaxSpeed(5, 7.5); v != 7.5 {
		t.Fatalf("max speed not raised: %v", v)
	}
}

func TestClampStationary(t *testing.T) {
	if v := ClampStationary(0.1); v != 0 {
		t.Fatalf("expected clamp to zero, got %v", v)
	}
	if v := ClampStationary(0.278); v != 0.278 {
		t.Fatalf("threshold speed should pass through, got %v", v)
	}
	if v := ClampStationary(2.4); v != 2.4 {
		t.Fatalf("moving speed should pass through, got %v", v)
	}
}
