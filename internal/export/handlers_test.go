package export

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-ridetracker/internal/ride"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func newExportApp(t *testing.T) (pgxmock.PgxPoolIface, *fiber.App) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	app := fiber.New()
	RegisterRoutes(app.Group("/rides"), ride.NewStore(mock))
	return mock, app
}

func TestExportHandlerUnknownRide(t *testing.T) {
	mock, app := newExportApp(t)

	mock.ExpectQuery(`SELECT id, name, start_time, end_time`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	req := httptest.NewRequest(http.MethodGet, "/rides/missing/export.fit", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: %d %v", resp.StatusCode, err)
	}
}

func TestExportHandlerRideInProgress(t *testing.T) {
	mock, app := newExportApp(t)
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, start_time, end_time`).
		WithArgs("ride-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "start_time", "end_time", "manual", "auto", "dist", "max", "elapsed", "moving", "avg"}).
			AddRow("ride-1", "Live", start, (*time.Time)(nil), int64(0), int64(0), 0.0, 0.0, int64(0), int64(0), 0.0))

	req := httptest.NewRequest(http.MethodGet, "/rides/ride-1/export.fit", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("status: %d %v", resp.StatusCode, err)
	}
}

func TestExportHandlerFinishedRide(t *testing.T) {
	mock, app := newExportApp(t)
	r, points := finishedRide()

	mock.ExpectQuery(`SELECT id, name, start_time, end_time`).
		WithArgs(r.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "start_time", "end_time", "manual", "auto", "dist", "max", "elapsed", "moving", "avg"}).
			AddRow(r.ID, r.Name, r.StartTime, r.EndTime, r.ManualPausedMs, r.AutoPausedMs, r.DistanceM, r.MaxSpeedMps, r.ElapsedMs, r.MovingMs, r.AvgSpeedMps))

	rows := pgxmock.NewRows([]string{"id", "ride_id", "lat", "lng", "speed_mps", "accuracy_m", "recorded_at", "manual_paused", "auto_paused"})
	for i, p := range points {
		rows.AddRow(int64(i+1), p.RideID, p.Lat, p.Lng, p.SpeedMps, 5.0, p.RecordedAt, p.ManualPaused, p.AutoPaused)
	}
	mock.ExpectQuery(`SELECT id, ride_id, lat, lng, speed_mps`).
		WithArgs(r.ID).
		WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodGet, "/rides/"+r.ID+"/export.fit", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d %v", resp.StatusCode, err)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "application/vnd.ant.fit" {
		t.Fatalf("content type: %q", ct)
	}
	if cd := resp.Header.Get(fiber.HeaderContentDisposition); cd == "" {
		t.Fatalf("missing content disposition")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) < 14 {
		t.Fatalf("body: %d bytes, %v", len(body), err)
	}
	if string(body[8:12]) != ".FIT" {
		t.Fatalf("missing .FIT marker")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
