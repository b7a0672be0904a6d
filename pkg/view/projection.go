// Package view holds the scope camera: centering modes that follow the host,
// the Web Mercator projection the map is drawn in, range rings and heading
// markers, and the track readouts shown for a selected aircraft.
package view

import (
	"math"

	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

// Web Mercator (EPSG:3857) constants.
const (
	mercatorRadius = 6378137.0
	mercatorMaxLat = 85.0511287798066

	// MaxResolution is the map units per pixel at zoom 0.
	MaxResolution = 156543.03392804097
)

// Point is a position in projected map units (meters at the equator).
type Point struct {
	X float64
	Y float64
}

// Add returns p shifted by dx, dy.
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// FromLonLat projects a geographic position. Latitude is clamped to the
// mercator limit.
func FromLonLat(g coordinates.Geographic) Point {
	lat := math.Max(-mercatorMaxLat, math.Min(mercatorMaxLat, g.Latitude))
	x := mercatorRadius * g.Longitude * coordinates.DegreesToRadians
	y := mercatorRadius * math.Log(math.Tan(math.Pi/4+lat*coordinates.DegreesToRadians/2))
	return Point{X: x, Y: y}
}

// ToLonLat converts a projected point back to latitude and longitude.
func ToLonLat(p Point) coordinates.Geographic {
	lon := p.X / mercatorRadius * coordinates.RadiansToDegrees
	lat := (2*math.Atan(math.Exp(p.Y/mercatorRadius)) - math.Pi/2) * coordinates.RadiansToDegrees
	return coordinates.Geographic{
		Latitude:  lat,
		Longitude: coordinates.NormalizeLongitude(lon),
	}
}

// ResolutionForZoom returns map units per pixel at zoom level z.
func ResolutionForZoom(z float64) float64 {
	return MaxResolution / math.Pow(2, z)
}

// ZoomForResolution is the inverse of ResolutionForZoom.
func ZoomForResolution(res float64) float64 {
	if res <= 0 {
		return 0
	}
	return math.Log2(MaxResolution / res)
}

// OffsetCoordinate moves start by distance map units along bearingDeg.
// This is a planar step, good enough at scope zoom levels.
func OffsetCoordinate(start Point, bearingDeg, distance float64) Point {
	b := bearingDeg * coordinates.DegreesToRadians
	return start.Add(distance*math.Sin(b), distance*math.Cos(b))
}

// MapUnitsPerMeter is the mercator scale factor at a latitude.
func MapUnitsPerMeter(lat float64) float64 {
	c := math.Cos(lat * coordinates.DegreesToRadians)
	if c < 1e-6 {
		c = 1e-6
	}
	return 1 / c
}
