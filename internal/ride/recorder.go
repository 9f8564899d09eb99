package ride

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"backend-ridetracker/internal/shared/geo"

	"github.com/google/uuid"
)

var (
	ErrAlreadyRecording = errors.New("a ride is already being recorded")
	ErrNotRecording     = errors.New("no ride is being recorded")
)

var nowFn = time.Now

// Broadcaster fans a payload out to observers of a ride. stream.Hub satisfies it.
type Broadcaster interface {
	Broadcast(rideID string, payload []byte)
}

// Options tune the engine; zero values fall back to sane defaults.
type Options struct {
	MaxFixAccuracyM      float64
	MaxPlausibleSpeedMps float64
	MinRideDurationMs    int64
}

// Recorder is the session state machine. It is the sole owner of the current
// RecordingState and the in-flight Ride; commands and fixes are serialized
// under one lock so a command can never interleave with a half-applied fix.
// Observers read snapshots and state over the hub or the read methods.
type Recorder struct {
	mu       sync.Mutex
	store    *Store
	hub      Broadcaster
	detector *Detector
	opts     Options

	state  RecordingState
	ride   Ride
	dur    durations
	filter *Filter

	lastSpeed  float64
	prevLat    float64
	prevLng    float64
	hasPrev    bool
	saveAtRisk bool
}

func NewRecorder(store *Store, hub Broadcaster, cfg ConfigSource, opts Options) *Recorder {
	if opts.MinRideDurationMs <= 0 {
		opts.MinRideDurationMs = 5000
	}
	return &Recorder{
		store:    store,
		hub:      hub,
		detector: NewDetector(cfg),
		opts:     opts,
		state:    RecordingState{Mode: ModeIdle},
		filter:   NewFilter(opts.MaxFixAccuracyM, opts.MaxPlausibleSpeedMps),
	}
}

// Start begins a new session. Only valid from Idle.
func (r *Recorder) Start(ctx context.Context, name string) (Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Mode != ModeIdle {
		return Ride{}, ErrAlreadyRecording
	}

	now := nowFn()
	if name == "" {
		name = "Ride " + now.Format("2006-01-02 15:04")
	}

	created, err := r.store.CreateRide(ctx, Ride{
		ID:        uuid.NewString(),
		Name:      name,
		StartTime: now,
	})
	if err != nil {
		return Ride{}, err
	}

	state := RecordingState{Mode: ModeRecording, RideID: created.ID}
	if err := r.store.SaveState(ctx, state); err != nil {
		_ = r.store.DeleteRide(ctx, created.ID)
		return Ride{}, err
	}

	r.state = state
	r.ride = created
	r.dur = durations{start: created.StartTime}
	r.filter.Reset()
	r.detector.Reset()
	r.lastSpeed = 0
	r.hasPrev = false
	r.saveAtRisk = false

	r.broadcastState()
	return created, nil
}

// Pause suspends tracking on user command. Manual pause wins over auto-pause:
// from AutoPaused the auto span is closed and a manual one opened.
func (r *Recorder) Pause(ctx context.Context) (RecordingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state.Mode {
	case ModeManuallyPaused:
		return r.state, nil
	case ModeRecording, ModeAutoPaused:
	default:
		return r.state, ErrNotRecording
	}

	now := nowFn()
	r.dur.closeAuto(now)
	r.dur.openManual(now)
	r.detector.Reset()
	r.hasPrev = false

	state := RecordingState{Mode: ModeManuallyPaused, RideID: r.state.RideID, PausedAt: &now}
	if err := r.persistProgress(ctx, now); err != nil {
		log.Printf("ride %s: pause persist: %v", r.state.RideID, err)
	}
	if err := r.store.SaveState(ctx, state); err != nil {
		log.Printf("ride %s: pause state persist: %v", r.state.RideID, err)
	}
	r.state = state
	r.broadcastState()
	return r.state, nil
}

// Resume ends a manual pause. Only valid from ManuallyPaused; an auto pause
// ends on its own when speed comes back.
func (r *Recorder) Resume(ctx context.Context) (RecordingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state.Mode {
	case ModeRecording:
		return r.state, nil
	case ModeManuallyPaused:
	default:
		return r.state, ErrNotRecording
	}

	now := nowFn()
	r.dur.closeManual(now)

	state := RecordingState{Mode: ModeRecording, RideID: r.state.RideID}
	if err := r.persistProgress(ctx, now); err != nil {
		log.Printf("ride %s: resume persist: %v", r.state.RideID, err)
	}
	if err := r.store.SaveState(ctx, state); err != nil {
		log.Printf("ride %s: resume state persist: %v", r.state.RideID, err)
	}
	r.state = state
	r.broadcastState()
	return r.state, nil
}

// Stop ends fix ingestion and freezes the ride's final statistics. A no-op
// when nothing is active. The final write must land (with retries) before the
// stop is acknowledged, so nothing is applied on persistence failure.
func (r *Recorder) Stop(ctx context.Context) (RecordingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked(ctx)
}

func (r *Recorder) stopLocked(ctx context.Context) (RecordingState, error) {
	if !r.state.Active() {
		return r.state, nil
	}

	now := nowFn()
	d := r.dur
	d.closeAll(now)

	ride := r.ride
	ride.ElapsedMs, ride.MovingMs, ride.ManualPausedMs, ride.AutoPausedMs = d.live(now)
	ride.AvgSpeedMps = geo.AverageSpeedMps(ride.DistanceM, ride.MovingMs)
	ride.EndTime = &now

	if err := r.store.UpdateRideRetry(ctx, ride); err != nil {
		return r.state, fmt.Errorf("persist final ride: %w", err)
	}
	state := RecordingState{Mode: ModeStopped, RideID: ride.ID}
	if err := r.store.SaveState(ctx, state); err != nil {
		return r.state, fmt.Errorf("persist stopped state: %w", err)
	}

	r.dur = d
	r.ride = ride
	r.state = state
	r.detector.Reset()
	r.hasPrev = false
	r.broadcastState()
	return r.state, nil
}

// Finish resolves a stopped ride: keep it, or discard it as too short. Either
// way the state machine returns to Idle. While a session is in flight the
// call is rejected, so a stale finish for an old ride cannot tear down the
// live one.
func (r *Recorder) Finish(ctx context.Context, rideID string) (FinishResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Active() {
		return FinishResult{}, ErrAlreadyRecording
	}

	ride, err := r.store.GetRideByID(ctx, rideID)
	if errors.Is(err, ErrRideNotFound) {
		log.Printf("finish: ride %s not found, resetting to idle", rideID)
		if err := r.resetIdle(ctx); err != nil {
			return FinishResult{}, err
		}
		return FinishResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return FinishResult{}, err
	}

	if ride.MovingMs < r.opts.MinRideDurationMs {
		if err := r.store.DeleteRide(ctx, ride.ID); err != nil {
			return FinishResult{}, err
		}
		if err := r.resetIdle(ctx); err != nil {
			return FinishResult{}, err
		}
		return FinishResult{Outcome: OutcomeTooShort, MovingMs: ride.MovingMs}, nil
	}

	if err := r.resetIdle(ctx); err != nil {
		return FinishResult{}, err
	}
	return FinishResult{Outcome: OutcomeSaved, Ride: &ride, MovingMs: ride.MovingMs}, nil
}

func (r *Recorder) resetIdle(ctx context.Context) error {
	state := RecordingState{Mode: ModeIdle}
	if err := r.store.SaveState(ctx, state); err != nil {
		return err
	}
	previous := r.state.RideID
	r.state = state
	r.ride = Ride{}
	r.dur = durations{}
	r.hasPrev = false
	if previous != "" && r.hub != nil {
		r.broadcast(previous, event{Type: "state", State: &state})
	}
	return nil
}

// Ingest applies one raw fix. Invalid fixes are dropped silently
// (accepted=false, no error); fixes against an inactive session are rejected
// so nothing is ever appended to a stopped ride.
func (r *Recorder) Ingest(ctx context.Context, fix Fix) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.Active() {
		return false, ErrNotRecording
	}
	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = nowFn()
	}

	speed, ok := r.filter.Accept(fix)
	if !ok {
		return false, nil
	}
	r.lastSpeed = speed

	point := TrackPoint{
		RideID:       r.ride.ID,
		Lat:          fix.Lat,
		Lng:          fix.Lng,
		SpeedMps:     speed,
		AccuracyM:    fix.AccuracyM,
		RecordedAt:   fix.RecordedAt,
		ManualPaused: r.state.Mode == ModeManuallyPaused,
		AutoPaused:   r.state.Mode == ModeAutoPaused,
	}
	if _, err := r.store.InsertTrackPoint(ctx, point); err != nil {
		r.reportSaveAtRisk(err)
	}

	at := fix.RecordedAt
	switch r.state.Mode {
	case ModeAutoPaused:
		if r.detector.Observe(ctx, ModeAutoPaused, speed, at) == SignalResume {
			r.dur.closeAuto(at)
			r.transition(ctx, RecordingState{Mode: ModeRecording, RideID: r.ride.ID})
			r.prevLat, r.prevLng, r.hasPrev = fix.Lat, fix.Lng, true
		}
	case ModeRecording:
		if r.hasPrev {
			r.ride.DistanceM += geo.HaversineM(r.prevLat, r.prevLng, fix.Lat, fix.Lng)
		}
		r.prevLat, r.prevLng, r.hasPrev = fix.Lat, fix.Lng, true
		r.ride.MaxSpeedMps = geo.MaxSpeed(r.ride.MaxSpeedMps, speed)

		if r.detector.Observe(ctx, ModeRecording, speed, at) == SignalPause {
			r.dur.openAuto(at)
			r.hasPrev = false
			r.transition(ctx, RecordingState{Mode: ModeAutoPaused, RideID: r.ride.ID, PausedAt: &at})
		}
	case ModeManuallyPaused:
		// Point recorded with its flags; nothing folds and the detector
		// never sees a manual pause.
	}

	if err := r.persistProgress(ctx, nowFn()); err != nil {
		r.reportSaveAtRisk(err)
	}
	r.broadcastStats()
	return true, nil
}

// PermissionLost is raised when the location permission is revoked
// mid-session. The session cannot continue safely, so it is stopped and a
// distinct notice goes out to observers.
func (r *Recorder) PermissionLost(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.Active() {
		return nil
	}
	rideID := r.state.RideID
	if _, err := r.stopLocked(ctx); err != nil {
		return err
	}
	r.broadcast(rideID, event{Type: "notice", Notice: "permission_lost"})
	return nil
}

// State returns the current recording state.
func (r *Recorder) State() RecordingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Snapshot projects the live statistics. Durations are recomputed from the
// wall clock, including any in-progress pause span, without mutating anything.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(nowFn())
}

func (r *Recorder) snapshotLocked(now time.Time) Snapshot {
	if r.ride.ID == "" {
		return Snapshot{Mode: r.state.Mode}
	}
	elapsed, moving, manual, auto := r.dur.live(now)
	return Snapshot{
		RideID:          r.ride.ID,
		Mode:            r.state.Mode,
		ElapsedMs:       elapsed,
		MovingMs:        moving,
		ManualPausedMs:  manual,
		AutoPausedMs:    auto,
		DistanceM:       r.ride.DistanceM,
		CurrentSpeedMps: r.lastSpeed,
		AvgSpeedMps:     geo.AverageSpeedMps(r.ride.DistanceM, moving),
		MaxSpeedMps:     r.ride.MaxSpeedMps,
	}
}

// persistProgress writes the ride aggregate with durations as of now. Open
// pause spans stay open; only closed time is in the accumulators.
func (r *Recorder) persistProgress(ctx context.Context, now time.Time) error {
	elapsed, moving, _, _ := r.dur.live(now)
	r.ride.ElapsedMs = elapsed
	r.ride.MovingMs = moving
	r.ride.ManualPausedMs = r.dur.manualClosedMs
	r.ride.AutoPausedMs = r.dur.autoClosedMs
	r.ride.AvgSpeedMps = geo.AverageSpeedMps(r.ride.DistanceM, moving)
	return r.store.UpdateRideRetry(ctx, r.ride)
}

func (r *Recorder) transition(ctx context.Context, state RecordingState) {
	if err := r.store.SaveState(ctx, state); err != nil {
		log.Printf("ride %s: state persist: %v", state.RideID, err)
	}
	r.state = state
	r.broadcastState()
}

// reportSaveAtRisk tells observers the recording may not be saved. The
// session itself keeps running in memory.
func (r *Recorder) reportSaveAtRisk(err error) {
	log.Printf("ride %s: persistence failure: %v", r.ride.ID, err)
	if r.saveAtRisk {
		return
	}
	r.saveAtRisk = true
	r.broadcast(r.ride.ID, event{Type: "notice", Notice: "save_at_risk"})
}

type event struct {
	Type   string          `json:"type"`
	State  *RecordingState `json:"state,omitempty"`
	Stats  *Snapshot       `json:"stats,omitempty"`
	Notice string          `json:"notice,omitempty"`
}

func (r *Recorder) broadcastState() {
	state := r.state
	r.broadcast(state.RideID, event{Type: "state", State: &state})
}

func (r *Recorder) broadcastStats() {
	stats := r.snapshotLocked(nowFn())
	r.broadcast(stats.RideID, event{Type: "stats", Stats: &stats})
}

func (r *Recorder) broadcast(rideID string, ev event) {
	if r.hub == nil || rideID == "" {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	r.hub.Broadcast(rideID, payload)
}
