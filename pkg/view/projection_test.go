package view

import (
	"math"
	"testing"

	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

const tolerance = 1e-6

// TestFromLonLat tests the mercator projection against known points.
func TestFromLonLat(t *testing.T) {
	tests := []struct {
		name  string
		g     coordinates.Geographic
		wantX float64
		wantY float64
	}{
		{"origin", coordinates.Geographic{}, 0, 0},
		{"antimeridian", coordinates.Geographic{Longitude: 180}, 20037508.342789244, 0},
		{"west", coordinates.Geographic{Longitude: -90}, -10018754.171394622, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromLonLat(tt.g)
			if math.Abs(p.X-tt.wantX) > tolerance || math.Abs(p.Y-tt.wantY) > tolerance {
				t.Errorf("FromLonLat(%+v) = %+v, want (%f, %f)", tt.g, p, tt.wantX, tt.wantY)
			}
		})
	}

	if p := FromLonLat(coordinates.Geographic{Latitude: 45}); p.Y <= 0 {
		t.Errorf("Northern latitudes should project above the equator, got %f", p.Y)
	}
	if p := FromLonLat(coordinates.Geographic{Latitude: 90}); math.IsInf(p.Y, 0) {
		t.Error("Pole should be clamped, not infinite")
	}
}

// TestToLonLatRoundTrip verifies ToLonLat inverts FromLonLat.
func TestToLonLatRoundTrip(t *testing.T) {
	points := []coordinates.Geographic{
		{Latitude: 36.8529, Longitude: -76.9214},
		{Latitude: -33.9, Longitude: 151.2},
		{Latitude: 0, Longitude: 0},
		{Latitude: 80, Longitude: 179.5},
	}

	for _, g := range points {
		back := ToLonLat(FromLonLat(g))
		if math.Abs(back.Latitude-g.Latitude) > 1e-9 || math.Abs(back.Longitude-g.Longitude) > 1e-9 {
			t.Errorf("Round trip of %+v gave %+v", g, back)
		}
	}
}

// TestResolution tests zoom and resolution conversion.
func TestResolution(t *testing.T) {
	if r := ResolutionForZoom(0); r != MaxResolution {
		t.Errorf("ResolutionForZoom(0) = %f, want %f", r, MaxResolution)
	}
	if r := ResolutionForZoom(1); math.Abs(r-MaxResolution/2) > tolerance {
		t.Errorf("ResolutionForZoom(1) = %f, want %f", r, MaxResolution/2)
	}
	for _, z := range []float64{0, 3.5, 7, 12} {
		if got := ZoomForResolution(ResolutionForZoom(z)); math.Abs(got-z) > 1e-9 {
			t.Errorf("ZoomForResolution(ResolutionForZoom(%f)) = %f", z, got)
		}
	}
	if z := ZoomForResolution(0); z != 0 {
		t.Errorf("ZoomForResolution(0) = %f, want 0", z)
	}
}

// TestOffsetCoordinate tests the planar offset.
func TestOffsetCoordinate(t *testing.T) {
	start := Point{X: 10, Y: 20}
	tests := []struct {
		bearing float64
		want    Point
	}{
		{0, Point{10, 120}},
		{90, Point{110, 20}},
		{180, Point{10, -80}},
		{270, Point{-90, 20}},
	}

	for _, tt := range tests {
		got := OffsetCoordinate(start, tt.bearing, 100)
		if math.Abs(got.X-tt.want.X) > tolerance || math.Abs(got.Y-tt.want.Y) > tolerance {
			t.Errorf("OffsetCoordinate(bearing %f) = %+v, want %+v", tt.bearing, got, tt.want)
		}
	}
}
