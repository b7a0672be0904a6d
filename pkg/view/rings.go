package view

import (
	"fmt"
	"math"

	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

// RingLadderNM are the range ring radii offered, ascending.
var RingLadderNM = []float64{2, 5, 10, 20, 50, 100, 200, 500, 1000}

// RingDivisor is how many outer ring radii fit across the viewport width.
const RingDivisor = 7

// MarkerStepDeg is the spacing of heading markers around the outer ring.
const MarkerStepDeg = 30

// SelectRings picks the outer ring as the smallest ladder value exceeding
// widthNM / RingDivisor, falling back to the largest. Inner is half of outer.
func SelectRings(widthNM float64) (inner, outer float64) {
	target := widthNM / RingDivisor
	outer = RingLadderNM[len(RingLadderNM)-1]
	for _, r := range RingLadderNM {
		if r > target {
			outer = r
			break
		}
	}
	return outer / 2, outer
}

// ViewportWidthNM is the ground width covered by the viewport at lat.
func ViewportWidthNM(pose Pose, widthPx int, lat float64) float64 {
	meters := float64(widthPx) * pose.Resolution / MapUnitsPerMeter(lat)
	return meters / coordinates.MetersPerNauticalMile
}

// RingLabelAngle is the angle, counterclockwise from map east, at which ring
// labels are anchored for a view rotation.
func RingLabelAngle(rotation float64) float64 {
	return math.Pi/2 - rotation
}

// Ring is one range ring around the host.
type Ring struct {
	RadiusNM float64
	// Radius in map units at the host latitude
	Radius float64
	Label  string
	// LabelAt is the label anchor on the ring
	LabelAt Point
}

// HeadingMarker is one tick on the outer ring.
type HeadingMarker struct {
	Bearing       float64
	Label         string
	Position      Point
	LabelRotation float64
}

// RangeRings is everything drawn around the host.
type RangeRings struct {
	Center  Point
	Inner   Ring
	Outer   Ring
	Markers []HeadingMarker
}

// ComputeRings builds the inner and outer ring and the heading markers for
// a host position and camera pose.
func ComputeRings(host coordinates.Geographic, pose Pose, widthPx int) RangeRings {
	center := FromLonLat(host)
	innerNM, outerNM := SelectRings(ViewportWidthNM(pose, widthPx, host.Latitude))
	scale := coordinates.MetersPerNauticalMile * MapUnitsPerMeter(host.Latitude)
	angle := RingLabelAngle(pose.Rotation)

	ring := func(nm float64) Ring {
		r := nm * scale
		return Ring{
			RadiusNM: nm,
			Radius:   r,
			Label:    fmt.Sprintf("%g NM", nm),
			LabelAt:  center.Add(r*math.Cos(angle), r*math.Sin(angle)),
		}
	}
	rings := RangeRings{
		Center: center,
		Inner:  ring(innerNM),
		Outer:  ring(outerNM),
	}
	rings.Markers = HeadingMarkers(center, rings.Outer.Radius)
	return rings
}

// HeadingMarkers places a labelled tick every MarkerStepDeg around a circle.
// Labels are rotated to read outward from the center.
func HeadingMarkers(center Point, radius float64) []HeadingMarker {
	markers := make([]HeadingMarker, 0, 360/MarkerStepDeg)
	for b := 0; b < 360; b += MarkerStepDeg {
		pos := OffsetCoordinate(center, float64(b), radius)
		dx, dy := pos.X-center.X, pos.Y-center.Y
		rot := math.Mod(180-math.Atan2(dy, dx)*coordinates.RadiansToDegrees, 360)
		if rot < 0 {
			rot += 360
		}
		markers = append(markers, HeadingMarker{
			Bearing:       float64(b),
			Label:         fmt.Sprintf("%03d", b),
			Position:      pos,
			LabelRotation: rot,
		})
	}
	return markers
}

// BreadcrumbOpacity fades trail point i of n, newest first.
func BreadcrumbOpacity(i, n int) float64 {
	if n <= 0 || i < 0 || i >= n {
		return 0
	}
	return 1 - float64(i)/float64(n)
}
