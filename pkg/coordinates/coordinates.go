package coordinates

import (
	"math"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the Earth's radius in kilometers (WGS84 mean radius)
	EarthRadiusKm = 6371.0

	// EarthRadiusMeters is EarthRadiusKm in meters
	EarthRadiusMeters = EarthRadiusKm * 1000.0

	// MetersPerNauticalMile is the international nautical mile
	MetersPerNauticalMile = 1852.0

	// FeetToMeters converts feet to meters
	FeetToMeters = 0.3048
)

// Geographic represents a position on Earth's surface.
// Uses the WGS84 coordinate system (same as GPS).
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180]
	// Positive = East, Negative = West
	Longitude float64

	// Altitude in feet, informational only
	Altitude float64
}

// ToRadians converts the Geographic coordinates to radians.
// Returns (latRad, lonRad).
func (g Geographic) ToRadians() (float64, float64) {
	return g.Latitude * DegreesToRadians, g.Longitude * DegreesToRadians
}

// IsFinite reports whether latitude and longitude are usable numbers.
func (g Geographic) IsFinite() bool {
	return isFinite(g.Latitude) && isFinite(g.Longitude)
}

// NormalizeHeading ensures a heading is in the range [0, 360).
func NormalizeHeading(heading float64) float64 {
	h := math.Mod(heading, 360.0)
	if h < 0 {
		h += 360.0
	}
	// -1e-15 + 360 rounds to exactly 360
	if h >= 360.0 {
		h = 0
	}
	return h
}

// NormalizeLongitude wraps a longitude into (-180, 180].
func NormalizeLongitude(lon float64) float64 {
	l := math.Mod(lon+180.0, 360.0)
	if l < 0 {
		l += 360.0
	}
	l -= 180.0
	if l <= -180.0 {
		l += 360.0
	}
	return l
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another.
// Uses spherical trigonometry to calculate the bearing along a great circle.
// Returns bearing in degrees [0, 360), where 0 = North, 90 = East, 180 = South, 270 = West.
func Bearing(from, to Geographic) float64 {
	lat1, lon1 := from.ToRadians()
	lat2, lon2 := to.ToRadians()

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return NormalizeHeading(math.Atan2(y, x) * RadiansToDegrees)
}

// DistanceMeters calculates the great-circle distance between two points
// using the Haversine formula on a 6371 km sphere.
func DistanceMeters(from, to Geographic) float64 {
	lat1, lon1 := from.ToRadians()
	lat2, lon2 := to.ToRadians()

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a a hair past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// DistanceNauticalMiles calculates the great-circle distance between two points.
// Returns distance in nautical miles.
func DistanceNauticalMiles(from, to Geographic) float64 {
	return DistanceMeters(from, to) / MetersPerNauticalMile
}

// BearingRange returns the initial bearing in degrees [0, 360) and the
// great-circle range in nautical miles from one point to another.
// Identical points yield (0, 0).
func BearingRange(from, to Geographic) (bearingDeg, rangeNM float64) {
	if from.Latitude == to.Latitude && from.Longitude == to.Longitude {
		return 0, 0
	}
	return Bearing(from, to), DistanceNauticalMiles(from, to)
}

// HeadingFromPositions derives a track from two successive positions.
// ok is false when the positions are identical and no track can be derived.
func HeadingFromPositions(previous, current Geographic) (heading float64, ok bool) {
	if previous.Latitude == current.Latitude && previous.Longitude == current.Longitude {
		return 0, false
	}
	return Bearing(previous, current), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
