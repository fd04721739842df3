package geo

import "strings"

// DefaultPrecision is the geohash precision used when logging submission
// locations. Six characters is roughly ±0.61 km, coarse enough not to
// pinpoint an exact device position.
const DefaultPrecision = 6

// base32 is the geohash base32 alphabet (excludes a, i, l, o).
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// EncodeGeohash encodes a latitude/longitude into a geohash string of the
// given precision using the standard interleaved bisection algorithm.
func EncodeGeohash(lat, lng float64, precision int) string {
	if precision < 1 {
		precision = DefaultPrecision
	}

	latRange := [2]float64{-90.0, 90.0}
	lngRange := [2]float64{-180.0, 180.0}

	var geohash strings.Builder
	geohash.Grow(precision)

	bits := 0
	var ch uint

	even := true
	for geohash.Len() < precision {
		if even {
			mid := (lngRange[0] + lngRange[1]) / 2
			if lng > mid {
				ch |= 1 << (4 - bits)
				lngRange[0] = mid
			} else {
				lngRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat > mid {
				ch |= 1 << (4 - bits)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}

		even = !even
		bits++

		if bits == 5 {
			geohash.WriteByte(base32[ch])
			bits = 0
			ch = 0
		}
	}

	return geohash.String()
}
