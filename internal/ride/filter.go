package ride

import (
	"time"

	"backend-ridetracker/internal/shared/geo"
)

// Filter validates raw fixes before they reach the recorder. Rejections are
// silent drops, never errors. It remembers the last accepted fix so it can
// derive a speed when the source reports none.
type Filter struct {
	maxAccuracyM         float64
	maxPlausibleSpeedMps float64 // 0 disables the bound

	lastLat float64
	lastLng float64
	lastAt  time.Time
	hasLast bool
}

func NewFilter(maxAccuracyM, maxPlausibleSpeedMps float64) *Filter {
	if maxAccuracyM <= 0 {
		maxAccuracyM = 50
	}
	return &Filter{
		maxAccuracyM:         maxAccuracyM,
		maxPlausibleSpeedMps: maxPlausibleSpeedMps,
	}
}

// Accept returns the clamped speed for a valid fix, or ok=false for a drop.
// Reported (Doppler) speed is authoritative when present; otherwise speed is
// displacement over elapsed time against the previous accepted fix.
func (f *Filter) Accept(fix Fix) (speedMps float64, ok bool) {
	if fix.AccuracyM > f.maxAccuracyM {
		return 0, false
	}
	if f.hasLast && !fix.RecordedAt.After(f.lastAt) {
		return 0, false
	}

	var raw float64
	switch {
	case fix.SpeedMps != nil:
		raw = *fix.SpeedMps
		if raw < 0 {
			raw = 0
		}
	case f.hasLast:
		dt := fix.RecordedAt.Sub(f.lastAt).Seconds()
		if dt > 0 {
			raw = geo.HaversineM(f.lastLat, f.lastLng, fix.Lat, fix.Lng) / dt
		}
	default:
		// First accepted fix with no reported speed.
		raw = 0
	}

	if f.maxPlausibleSpeedMps > 0 && raw > f.maxPlausibleSpeedMps {
		return 0, false
	}

	f.lastLat = fix.Lat
	f.lastLng = fix.Lng
	f.lastAt = fix.RecordedAt
	f.hasLast = true

	return geo.ClampStationary(raw), true
}

// Reset clears the previous-fix memory, e.g. when a new session starts.
func (f *Filter) Reset() {
	f.hasLast = false
}
