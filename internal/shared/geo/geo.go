package geo

import "math"

const earthRadiusKm = 6371.0

// StationaryThresholdMps is 1 km/h. Speeds below it are GPS noise, not motion.
const StationaryThresholdMps = 0.278

// HaversineKm returns the great-circle distance between two coordinates in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// HaversineM returns the great-circle distance in meters.
func HaversineM(lat1, lng1, lat2, lng2 float64) float64 {
	return HaversineKm(lat1, lng1, lat2, lng2) * 1000
}

// AverageSpeedMps divides distance by moving time, zero when no time has accrued.
func AverageSpeedMps(distanceM float64, movingMs int64) float64 {
	if movingMs <= 0 {
		return 0
	}
	return distanceM / (float64(movingMs) / 1000.0)
}

// MaxSpeed never decreases during a session.
func MaxSpeed(current, sample float64) float64 {
	if sample > current {
		return sample
	}
	return current
}

// ClampStationary zeroes out speeds below the stationary threshold.
func ClampStationary(speedMps float64) float64 {
	if speedMps < StationaryThresholdMps {
		return 0
	}
	return speedMps
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
