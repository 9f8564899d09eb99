package ride

import (
	"context"
	"time"
)

// ConfigSource supplies the auto-pause configuration. It is asked on every
// observation so settings changes apply mid-session without a restart.
type ConfigSource interface {
	AutoPause(ctx context.Context) (AutoPauseConfig, error)
}

// Signal is the detector's verdict for one observed fix.
type Signal int

const (
	SignalNone Signal = iota
	SignalPause
	SignalResume
)

// Detector watches clamped speeds and signals auto-pause after a sustained
// stop, and auto-resume on the first moving sample. Only the pause side has a
// dwell window; resume is immediate to avoid lagging behind the rider after
// an intersection stop.
type Detector struct {
	cfg        ConfigSource
	belowSince time.Time
}

func NewDetector(cfg ConfigSource) *Detector {
	return &Detector{cfg: cfg}
}

// Observe feeds one clamped speed sample taken at the given instant. The mode
// must be Recording or AutoPaused; the detector never sees a manual pause.
func (d *Detector) Observe(ctx context.Context, mode Mode, speedMps float64, at time.Time) Signal {
	conf, err := d.cfg.AutoPause(ctx)
	if err != nil || !conf.Enabled {
		d.belowSince = time.Time{}
		return SignalNone
	}

	switch mode {
	case ModeRecording:
		if speedMps > 0 {
			d.belowSince = time.Time{}
			return SignalNone
		}
		if d.belowSince.IsZero() {
			d.belowSince = at
			return SignalNone
		}
		if at.Sub(d.belowSince) >= time.Duration(conf.ThresholdSeconds)*time.Second {
			d.belowSince = time.Time{}
			return SignalPause
		}
		return SignalNone
	case ModeAutoPaused:
		if speedMps > 0 {
			return SignalResume
		}
		return SignalNone
	}
	d.belowSince = time.Time{}
	return SignalNone
}

// Reset clears the dwell tracking, e.g. when a manual pause takes over.
func (d *Detector) Reset() {
	d.belowSince = time.Time{}
}
