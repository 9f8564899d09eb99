package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"backend-ridetracker/internal/ride"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
)

func finishedRide() (ride.Ride, []ride.TrackPoint) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)
	r := ride.Ride{
		ID:          "4f9d2c1a-7b3e-4a08-9c55-0d8a91f2e634",
		Name:        "Morning Loop",
		StartTime:   start,
		EndTime:     &end,
		ElapsedMs:   600000,
		MovingMs:    540000,
		DistanceM:   3200,
		AvgSpeedMps: 5.9,
		MaxSpeedMps: 11.2,
	}
	points := []ride.TrackPoint{
		{RideID: r.ID, Lat: 48.0, Lng: 2.0, SpeedMps: 5, RecordedAt: start.Add(time.Second)},
		{RideID: r.ID, Lat: 48.001, Lng: 2.0, SpeedMps: 6, RecordedAt: start.Add(2 * time.Second)},
		{RideID: r.ID, Lat: 48.002, Lng: 2.0, SpeedMps: 7, RecordedAt: start.Add(3 * time.Second)},
	}
	return r, points
}

func TestBuildFITProducesDecodableActivity(t *testing.T) {
	r, points := finishedRide()

	data, err := BuildFIT(r, points)
	if err != nil {
		t.Fatalf("build fit: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("empty file")
	}
	if string(data[8:12]) != ".FIT" {
		t.Fatalf("missing .FIT marker in header: %q", data[:14])
	}

	dec := decoder.New(bytes.NewReader(data))
	decoded, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	var records []*mesgdef.Record
	var sessions int
	for i := range decoded.Messages {
		switch decoded.Messages[i].Num {
		case typedef.MesgNumRecord:
			records = append(records, mesgdef.NewRecord(&decoded.Messages[i]))
		case typedef.MesgNumSession:
			sessions++
		}
	}
	if len(records) != len(points) {
		t.Fatalf("records = %d, want %d", len(records), len(points))
	}
	if sessions != 1 {
		t.Fatalf("sessions = %d", sessions)
	}

	// Two ~111 m legs of latitude, in centimeters.
	last := records[len(records)-1]
	if last.Distance < 22000 || last.Distance > 22500 {
		t.Fatalf("cumulative distance = %d cm", last.Distance)
	}
}

func TestBuildFITSkipsPausedDistance(t *testing.T) {
	r, points := finishedRide()
	// Pause the middle point; neither leg around it should add distance.
	points[1].ManualPaused = true

	data, err := BuildFIT(r, points)
	if err != nil {
		t.Fatalf("build fit: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("empty file")
	}

	dec := decoder.New(bytes.NewReader(data))
	decoded, err := dec.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range decoded.Messages {
		if decoded.Messages[i].Num != typedef.MesgNumRecord {
			continue
		}
		if d := mesgdef.NewRecord(&decoded.Messages[i]).Distance; d != 0 {
			t.Fatalf("distance folded across a pause: %d cm", d)
		}
	}
}

func TestFilename(t *testing.T) {
	r, _ := finishedRide()
	name := Filename(r)
	if !strings.HasPrefix(name, "ride-2025-06-01-") || !strings.HasSuffix(name, ".fit") {
		t.Fatalf("unexpected filename %q", name)
	}
}

func TestFilenameShortID(t *testing.T) {
	r, _ := finishedRide()
	r.ID = "abc"
	if got, want := Filename(r), "ride-2025-06-01-abc.fit"; got != want {
		t.Fatalf("Filename = %q, want %q", got, want)
	}
}
