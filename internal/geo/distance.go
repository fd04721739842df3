// Package geo provides geodesic helpers for proximity checks and
// privacy-coarse location handling.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6371000.0

// Coordinate is a WGS84 latitude/longitude pair in degrees. AccuracyM, when
// known, is the reported accuracy radius of the fix in meters.
type Coordinate struct {
	Lat       float64
	Lng       float64
	AccuracyM float64
}

// DistanceMeters returns the great-circle distance between a and b using the
// haversine formula. It is symmetric, total over finite inputs, and zero
// exactly when both points are equal. Range validation is the caller's job;
// non-finite inputs produce non-finite output.
func DistanceMeters(a, b Coordinate) float64 {
	if a.Lat == b.Lat && a.Lng == b.Lng {
		return 0
	}

	phi1 := toRadians(a.Lat)
	phi2 := toRadians(b.Lat)
	dPhi := toRadians(b.Lat - a.Lat)
	dLambda := toRadians(b.Lng - a.Lng)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ValidCoordinate reports whether c lies inside the WGS84 ranges accepted by
// the API: lat in [-90,90], lng in [-180,180], accuracy in [0,10000] meters.
func ValidCoordinate(c Coordinate) bool {
	if c.Lat < -90 || c.Lat > 90 {
		return false
	}
	if c.Lng < -180 || c.Lng > 180 {
		return false
	}
	if c.AccuracyM < 0 || c.AccuracyM > 10000 {
		return false
	}
	return true
}
