package ride

import "time"

// durations holds the session's time accounting. Elapsed and moving time are
// never stored; they are recomputed from the start timestamp and the closed
// pause accumulators on every read, so a process restart causes no drift.
type durations struct {
	start          time.Time
	manualClosedMs int64
	autoClosedMs   int64
	manualOpenAt   time.Time // zero when no manual pause is open
	autoOpenAt     time.Time // zero when no auto pause is open
}

// openManual starts a manual pause span. Opening an already-open span is a
// no-op so double commands cannot double count.
func (d *durations) openManual(at time.Time) {
	if d.manualOpenAt.IsZero() {
		d.manualOpenAt = at
	}
}

// closeManual folds the open manual span into the persisted accumulator.
func (d *durations) closeManual(at time.Time) {
	if d.manualOpenAt.IsZero() {
		return
	}
	d.manualClosedMs += millisBetween(d.manualOpenAt, at)
	d.manualOpenAt = time.Time{}
}

func (d *durations) openAuto(at time.Time) {
	if d.autoOpenAt.IsZero() {
		d.autoOpenAt = at
	}
}

func (d *durations) closeAuto(at time.Time) {
	if d.autoOpenAt.IsZero() {
		return
	}
	d.autoClosedMs += millisBetween(d.autoOpenAt, at)
	d.autoOpenAt = time.Time{}
}

// closeAll ends any open spans, e.g. on stop.
func (d *durations) closeAll(at time.Time) {
	d.closeManual(at)
	d.closeAuto(at)
}

// live returns elapsed, moving and per-kind pause durations as of now. Open
// spans are added transiently for display without touching the accumulators.
func (d *durations) live(now time.Time) (elapsedMs, movingMs, manualMs, autoMs int64) {
	elapsedMs = millisBetween(d.start, now)

	manualMs = d.manualClosedMs
	if !d.manualOpenAt.IsZero() {
		manualMs += millisBetween(d.manualOpenAt, now)
	}
	autoMs = d.autoClosedMs
	if !d.autoOpenAt.IsZero() {
		autoMs += millisBetween(d.autoOpenAt, now)
	}

	movingMs = elapsedMs - manualMs - autoMs
	if movingMs < 0 {
		movingMs = 0
	}
	return elapsedMs, movingMs, manualMs, autoMs
}

func millisBetween(from, to time.Time) int64 {
	ms := to.Sub(from).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
