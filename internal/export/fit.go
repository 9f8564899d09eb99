package export

import (
	"bytes"
	"time"

	"backend-ridetracker/internal/ride"
	"backend-ridetracker/internal/shared/geo"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
)

// FIT stores coordinates in semicircles.
const degreesToSemicircles = 2147483648.0 / 180.0

// BuildFIT encodes a finished ride as a FIT activity file: FileId, one Record
// per track point, a stop Event, then Lap and Session summaries. Distance is
// re-folded over non-paused consecutive points so paused gaps add nothing.
// Messages are built with the mesgdef constructors so fields we never set
// stay at their invalid sentinels and are omitted from the encoded file.
func BuildFIT(r ride.Ride, points []ride.TrackPoint) ([]byte, error) {
	fit := proto.FIT{}

	fileID := mesgdef.NewFileId(nil).
		SetType(typedef.FileActivity).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetProduct(0).
		SetSerialNumber(1).
		SetTimeCreated(r.StartTime)
	fit.Messages = append(fit.Messages, fileID.ToMesg(nil))

	var cumDistM float64
	var prev *ride.TrackPoint
	for i := range points {
		p := points[i]
		if prev != nil && !p.ManualPaused && !p.AutoPaused && !prev.ManualPaused && !prev.AutoPaused {
			cumDistM += geo.HaversineM(prev.Lat, prev.Lng, p.Lat, p.Lng)
		}
		prev = &points[i]

		rec := mesgdef.NewRecord(nil).
			SetTimestamp(p.RecordedAt).
			SetPositionLat(int32(p.Lat * degreesToSemicircles)).
			SetPositionLong(int32(p.Lng * degreesToSemicircles)).
			SetDistance(uint32(cumDistM * 100)).        // cm
			SetEnhancedSpeed(uint32(p.SpeedMps * 1000)) // mm/s
		fit.Messages = append(fit.Messages, rec.ToMesg(nil))
	}

	endTime := r.StartTime
	if r.EndTime != nil {
		endTime = *r.EndTime
	}

	eventMesg := mesgdef.NewEvent(nil).
		SetTimestamp(endTime).
		SetEvent(typedef.EventTimer).
		SetEventType(typedef.EventTypeStopAll)
	fit.Messages = append(fit.Messages, eventMesg.ToMesg(nil))

	lapMesg := mesgdef.NewLap(nil).
		SetTimestamp(endTime).
		SetStartTime(r.StartTime).
		SetTotalElapsedTime(uint32(r.ElapsedMs)).
		SetTotalTimerTime(uint32(r.MovingMs)).
		SetTotalDistance(uint32(r.DistanceM * 100)).
		SetEvent(typedef.EventLap).
		SetEventType(typedef.EventTypeStop)
	fit.Messages = append(fit.Messages, lapMesg.ToMesg(nil))

	sessionMesg := mesgdef.NewSession(nil).
		SetTimestamp(endTime).
		SetStartTime(r.StartTime).
		SetTotalElapsedTime(uint32(r.ElapsedMs)).
		SetTotalTimerTime(uint32(r.MovingMs)).
		SetTotalDistance(uint32(r.DistanceM * 100)).
		SetAvgSpeed(uint16(r.AvgSpeedMps * 1000)).
		SetMaxSpeed(uint16(r.MaxSpeedMps * 1000)).
		SetSport(typedef.SportCycling).
		SetSubSport(typedef.SubSportRoad).
		SetEvent(typedef.EventSession).
		SetEventType(typedef.EventTypeStop).
		SetTrigger(typedef.SessionTriggerActivityEnd)
	fit.Messages = append(fit.Messages, sessionMesg.ToMesg(nil))

	var buf bytes.Buffer
	enc := encoder.New(&buf)
	if err := enc.Encode(&fit); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename suggests a name for the exported file.
func Filename(r ride.Ride) string {
	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return "ride-" + r.StartTime.Format(time.DateOnly) + "-" + id + ".fit"
}
