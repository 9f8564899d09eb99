package ride

import (
	"context"
	"errors"
	"time"

	"backend-ridetracker/internal/db"

	"github.com/jackc/pgx/v5"
)

var ErrRideNotFound = errors.New("ride not found")

// Persistence write retries. The delay is a var so tests can shrink it.
const retryAttempts = 3

var retryDelay = 100 * time.Millisecond

// Store persists rides, track points and the recording state. It treats the
// database as a record store; schema beyond these statements is not assumed.
type Store struct {
	db db.Querier
}

func NewStore(q db.Querier) *Store {
	return &Store{db: q}
}

func (s *Store) CreateRide(ctx context.Context, r Ride) (Ride, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO rides (id, name, start_time, manual_paused_ms, auto_paused_ms, distance_m, max_speed_mps, elapsed_ms, moving_ms, avg_speed_mps)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING start_time
	`, r.ID, r.Name, r.StartTime, r.ManualPausedMs, r.AutoPausedMs, r.DistanceM, r.MaxSpeedMps, r.ElapsedMs, r.MovingMs, r.AvgSpeedMps)
	if err := row.Scan(&r.StartTime); err != nil {
		return Ride{}, err
	}
	return r, nil
}

func (s *Store) UpdateRide(ctx context.Context, r Ride) error {
	_, err := s.db.Exec(ctx, `
		UPDATE rides
		SET name=$2, end_time=$3, manual_paused_ms=$4, auto_paused_ms=$5,
		    distance_m=$6, max_speed_mps=$7, elapsed_ms=$8, moving_ms=$9, avg_speed_mps=$10
		WHERE id=$1
	`, r.ID, r.Name, r.EndTime, r.ManualPausedMs, r.AutoPausedMs, r.DistanceM, r.MaxSpeedMps, r.ElapsedMs, r.MovingMs, r.AvgSpeedMps)
	return err
}

// UpdateRideRetry retries transient write failures before giving up. The
// caller decides what an exhausted retry means; recording never dies on it.
func (s *Store) UpdateRideRetry(ctx context.Context, r Ride) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err = s.UpdateRide(ctx, r); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return err
}

// DeleteRide removes a ride; track points cascade with it.
func (s *Store) DeleteRide(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM rides WHERE id=$1`, id)
	return err
}

func (s *Store) GetRideByID(ctx context.Context, id string) (Ride, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, start_time, end_time, manual_paused_ms, auto_paused_ms,
		       COALESCE(distance_m,0), COALESCE(max_speed_mps,0), elapsed_ms, moving_ms, COALESCE(avg_speed_mps,0)
		FROM rides WHERE id=$1
	`, id)
	var r Ride
	err := row.Scan(&r.ID, &r.Name, &r.StartTime, &r.EndTime, &r.ManualPausedMs, &r.AutoPausedMs,
		&r.DistanceM, &r.MaxSpeedMps, &r.ElapsedMs, &r.MovingMs, &r.AvgSpeedMps)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ride{}, ErrRideNotFound
	}
	if err != nil {
		return Ride{}, err
	}
	return r, nil
}

func (s *Store) InsertTrackPoint(ctx context.Context, p TrackPoint) (TrackPoint, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO track_points (ride_id, lat, lng, speed_mps, accuracy_m, recorded_at, manual_paused, auto_paused)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, p.RideID, p.Lat, p.Lng, p.SpeedMps, p.AccuracyM, p.RecordedAt, p.ManualPaused, p.AutoPaused)
	if err := row.Scan(&p.ID); err != nil {
		return TrackPoint{}, err
	}
	return p, nil
}

func (s *Store) TrackPointsForRide(ctx context.Context, rideID string) ([]TrackPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, ride_id, lat, lng, speed_mps, accuracy_m, recorded_at, manual_paused, auto_paused
		FROM track_points WHERE ride_id=$1
		ORDER BY recorded_at
	`, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []TrackPoint
	for rows.Next() {
		var p TrackPoint
		if err := rows.Scan(&p.ID, &p.RideID, &p.Lat, &p.Lng, &p.SpeedMps, &p.AccuracyM, &p.RecordedAt, &p.ManualPaused, &p.AutoPaused); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// SaveState upserts the single recording-state row.
func (s *Store) SaveState(ctx context.Context, state RecordingState) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO recording_state (id, mode, ride_id, paused_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET mode=EXCLUDED.mode, ride_id=EXCLUDED.ride_id, paused_at=EXCLUDED.paused_at
	`, string(state.Mode), nullIfEmpty(state.RideID), state.PausedAt)
	return err
}

// LoadState returns the persisted state, or Idle when none was ever written.
func (s *Store) LoadState(ctx context.Context) (RecordingState, error) {
	row := s.db.QueryRow(ctx, `SELECT mode, COALESCE(ride_id,''), paused_at FROM recording_state WHERE id=1`)
	var mode string
	var state RecordingState
	err := row.Scan(&mode, &state.RideID, &state.PausedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RecordingState{Mode: ModeIdle}, nil
	}
	if err != nil {
		return RecordingState{}, err
	}
	state.Mode = Mode(mode)
	return state, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
