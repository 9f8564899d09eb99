package ride

import "time"

// Ride is the aggregate for one recording session. Durations are derived from
// wall-clock timestamps on every read, never ticked incrementally; only the
// closed pause accumulators are stored.
type Ride struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	ElapsedMs      int64      `json:"elapsed_ms"`
	MovingMs       int64      `json:"moving_ms"`
	ManualPausedMs int64      `json:"manual_paused_ms"`
	AutoPausedMs   int64      `json:"auto_paused_ms"`
	DistanceM      float64    `json:"distance_m"`
	AvgSpeedMps    float64    `json:"avg_speed_mps"`
	MaxSpeedMps    float64    `json:"max_speed_mps"`
}

// TrackPoint is one accepted fix, tagged with the pause flags in effect when
// it was captured. Append-only; deleted only with its ride.
type TrackPoint struct {
	ID           int64     `json:"id"`
	RideID       string    `json:"ride_id"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	SpeedMps     float64   `json:"speed_mps"`
	AccuracyM    float64   `json:"accuracy_m"`
	RecordedAt   time.Time `json:"recorded_at"`
	ManualPaused bool      `json:"manual_paused"`
	AutoPaused   bool      `json:"auto_paused"`
}

// Fix is a raw position report from the location provider. SpeedMps is nil
// when the source gave no Doppler speed; the filter then derives one from
// displacement over time.
type Fix struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracy_m"`
	SpeedMps   *float64  `json:"speed_mps,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Mode enumerates the recording state machine.
type Mode string

const (
	ModeIdle           Mode = "idle"
	ModeRecording      Mode = "recording"
	ModeManuallyPaused Mode = "manually_paused"
	ModeAutoPaused     Mode = "auto_paused"
	ModeStopped        Mode = "stopped"
)

// RecordingState is the single process-wide source of truth for session
// liveness. PausedAt carries the open pause span's start so a restart can
// reopen it without losing time.
type RecordingState struct {
	Mode     Mode       `json:"mode"`
	RideID   string     `json:"ride_id,omitempty"`
	PausedAt *time.Time `json:"paused_at,omitempty"`
}

// Active reports whether a session is in flight (anything but Idle/Stopped).
func (s RecordingState) Active() bool {
	switch s.Mode {
	case ModeRecording, ModeManuallyPaused, ModeAutoPaused:
		return true
	case ModeIdle, ModeStopped:
		return false
	}
	return false
}

// Outcome of a finish decision.
type Outcome string

const (
	OutcomeSaved    Outcome = "saved"
	OutcomeTooShort Outcome = "too_short"
	OutcomeNotFound Outcome = "not_found"
)

// FinishResult reports how a stopped ride was resolved. TooShort carries the
// actual moving duration; it is an expected result, not an error.
type FinishResult struct {
	Outcome  Outcome `json:"outcome"`
	Ride     *Ride   `json:"ride,omitempty"`
	MovingMs int64   `json:"moving_ms,omitempty"`
}

// AutoPauseConfig controls the auto-pause detector. ThresholdSeconds must be
// one of AllowedThresholds.
type AutoPauseConfig struct {
	Enabled          bool `json:"enabled"`
	ThresholdSeconds int  `json:"threshold_seconds"`
}

// AllowedThresholds is the fixed set of auto-pause dwell windows.
var AllowedThresholds = []int{5, 10, 15, 20, 30, 45, 60}

// ValidThreshold reports whether s is an allowed dwell window.
func ValidThreshold(s int) bool {
	for _, v := range AllowedThresholds {
		if v == s {
			return true
		}
	}
	return false
}

// Snapshot is the read-only statistics projection consumed by observers.
type Snapshot struct {
	RideID          string  `json:"ride_id"`
	Mode            Mode    `json:"mode"`
	ElapsedMs       int64   `json:"elapsed_ms"`
	MovingMs        int64   `json:"moving_ms"`
	ManualPausedMs  int64   `json:"manual_paused_ms"`
	AutoPausedMs    int64   `json:"auto_paused_ms"`
	DistanceM       float64 `json:"distance_m"`
	CurrentSpeedMps float64 `json:"current_speed_mps"`
	AvgSpeedMps     float64 `json:"avg_speed_mps"`
	MaxSpeedMps     float64 `json:"max_speed_mps"`
}
