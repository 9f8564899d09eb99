package ride

import (
	"context"
	"errors"
	"log"
)

// Recovery resolves the persisted recording state after a process restart.
// Process death is never an error: durations derive from persisted wall-clock
// timestamps, so a recovered session shows no discontinuity.
type Recovery struct {
	store *Store
}

func NewRecovery(store *Store) *Recovery {
	return &Recovery{store: store}
}

// Run inspects the persisted state and rehydrates the recorder:
//   - Recording/AutoPaused: adopt the ride and keep ingesting; an open auto
//     span is reopened from its persisted start.
//   - ManuallyPaused: adopt in paused mode; ingestion folds nothing until an
//     explicit resume.
//   - Stopped: the ride awaits a finish decision; observers get an
//     incomplete_ride notice so a collaborator can finish or discard it.
//   - Idle or nothing persisted: no action.
func (rm *Recovery) Run(ctx context.Context, rec *Recorder) (RecordingState, error) {
	state, err := rm.store.LoadState(ctx)
	if err != nil {
		return RecordingState{}, err
	}

	switch state.Mode {
	case ModeIdle, "":
		return RecordingState{Mode: ModeIdle}, nil
	case ModeRecording, ModeManuallyPaused, ModeAutoPaused, ModeStopped:
	default:
		log.Printf("recovery: unknown persisted mode %q, resetting", state.Mode)
		state = RecordingState{Mode: ModeIdle}
		return state, rm.store.SaveState(ctx, state)
	}

	r, err := rm.store.GetRideByID(ctx, state.RideID)
	if errors.Is(err, ErrRideNotFound) {
		log.Printf("recovery: ride %s missing, resetting to idle", state.RideID)
		state = RecordingState{Mode: ModeIdle}
		return state, rm.store.SaveState(ctx, state)
	}
	if err != nil {
		return RecordingState{}, err
	}

	rec.adopt(state, r)
	log.Printf("recovery: resumed ride %s in mode %s", state.RideID, state.Mode)
	return state, nil
}

// adopt installs a persisted session into the recorder and announces it.
// Closed pause time comes from the ride row; an open span restarts from the
// persisted PausedAt. Broadcasts happen under the lock, like every other
// transition, so observers never see a half-installed session.
func (r *Recorder) adopt(state RecordingState, ride Ride) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = state
	r.ride = ride
	r.dur = durations{
		start:          ride.StartTime,
		manualClosedMs: ride.ManualPausedMs,
		autoClosedMs:   ride.AutoPausedMs,
	}
	if state.PausedAt != nil {
		switch state.Mode {
		case ModeManuallyPaused:
			r.dur.manualOpenAt = *state.PausedAt
		case ModeAutoPaused:
			r.dur.autoOpenAt = *state.PausedAt
		}
	}
	r.filter.Reset()
	r.detector.Reset()
	r.lastSpeed = 0
	r.hasPrev = false
	r.saveAtRisk = false

	if state.Mode == ModeStopped {
		r.broadcast(state.RideID, event{Type: "notice", Notice: "incomplete_ride"})
		return
	}
	r.broadcastState()
}
