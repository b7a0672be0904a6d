package view

import (
	"math"
	"testing"

	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

// TestSelectRings tests ring radius selection from the ladder.
func TestSelectRings(t *testing.T) {
	tests := []struct {
		widthNM   float64
		wantOuter float64
	}{
		{0, 2},
		{13.9, 2},
		{14, 5}, // exactly 2 does not exceed 2
		{70, 20},
		{700, 200},
		{6999, 1000},
		{100000, 1000},
	}

	for _, tt := range tests {
		inner, outer := SelectRings(tt.widthNM)
		if outer != tt.wantOuter {
			t.Errorf("SelectRings(%f) outer = %f, want %f", tt.widthNM, outer, tt.wantOuter)
		}
		if inner != outer/2 {
			t.Errorf("SelectRings(%f) inner = %f, want %f", tt.widthNM, inner, outer/2)
		}
	}
}

// TestViewportWidthNM tests ground width at the equator and at latitude.
func TestViewportWidthNM(t *testing.T) {
	pose := Pose{Resolution: 1}
	if w := ViewportWidthNM(pose, 1852, 0); math.Abs(w-1) > 1e-9 {
		t.Errorf("Expected 1 NM at the equator, got %f", w)
	}
	if w := ViewportWidthNM(pose, 1852, 60); math.Abs(w-0.5) > 1e-9 {
		t.Errorf("Expected 0.5 NM at 60 degrees, got %f", w)
	}
}

// TestComputeRings tests ring geometry around the host.
func TestComputeRings(t *testing.T) {
	host := coordinates.Geographic{}
	pose := Pose{Resolution: 71 * 1852.0 / 1000}

	rings := ComputeRings(host, pose, 1000)

	if rings.Outer.RadiusNM != 20 || rings.Inner.RadiusNM != 10 {
		t.Fatalf("Expected 10/20 NM rings, got %f/%f", rings.Inner.RadiusNM, rings.Outer.RadiusNM)
	}
	if math.Abs(rings.Outer.Radius-20*1852) > 1e-6 {
		t.Errorf("Outer radius = %f map units, want %f", rings.Outer.Radius, 20*1852.0)
	}
	if rings.Outer.Label != "20 NM" || rings.Inner.Label != "10 NM" {
		t.Errorf("Unexpected labels %q, %q", rings.Inner.Label, rings.Outer.Label)
	}

	// North up: the label sits on top of the ring
	at := rings.Outer.LabelAt
	if math.Abs(at.X) > 1e-6 || math.Abs(at.Y-20*1852) > 1e-6 {
		t.Errorf("Outer label at %+v, want (0, %f)", at, 20*1852.0)
	}
	if len(rings.Markers) != 12 {
		t.Errorf("Expected 12 heading markers, got %d", len(rings.Markers))
	}
}

// TestRingLabelAngle tests the label anchor angle.
func TestRingLabelAngle(t *testing.T) {
	if a := RingLabelAngle(0); a != math.Pi/2 {
		t.Errorf("RingLabelAngle(0) = %f, want pi/2", a)
	}
	if a := RingLabelAngle(math.Pi / 2); a != 0 {
		t.Errorf("RingLabelAngle(pi/2) = %f, want 0", a)
	}
}

// TestHeadingMarkers tests marker placement, labels and label rotation.
func TestHeadingMarkers(t *testing.T) {
	center := Point{X: 100, Y: 100}
	markers := HeadingMarkers(center, 50)

	if len(markers) != 12 {
		t.Fatalf("Expected 12 markers, got %d", len(markers))
	}
	wantLabels := []string{"000", "030", "060", "090", "120", "150", "180", "210", "240", "270", "300", "330"}
	for i, m := range markers {
		if m.Label != wantLabels[i] {
			t.Errorf("Marker %d label = %q, want %q", i, m.Label, wantLabels[i])
		}
		if d := math.Hypot(m.Position.X-center.X, m.Position.Y-center.Y); math.Abs(d-50) > 1e-9 {
			t.Errorf("Marker %s is %f from center, want 50", m.Label, d)
		}
		if m.LabelRotation < 0 || m.LabelRotation >= 360 {
			t.Errorf("Marker %s rotation %f out of range", m.Label, m.LabelRotation)
		}
	}

	rotations := map[int]float64{0: 90, 3: 180, 6: 270, 9: 0}
	for i, want := range rotations {
		got := markers[i].LabelRotation
		diff := math.Abs(got - want)
		if diff > 180 {
			diff = 360 - diff
		}
		if diff > 1e-6 {
			t.Errorf("Marker %s rotation = %f, want %f", markers[i].Label, got, want)
		}
	}
}

// TestBreadcrumbOpacity tests trail fading.
func TestBreadcrumbOpacity(t *testing.T) {
	tests := []struct {
		i, n int
		want float64
	}{
		{0, 5, 1},
		{1, 5, 0.8},
		{4, 5, 0.2},
		{5, 5, 0},
		{0, 0, 0},
		{-1, 5, 0},
	}

	for _, tt := range tests {
		if got := BreadcrumbOpacity(tt.i, tt.n); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("BreadcrumbOpacity(%d, %d) = %f, want %f", tt.i, tt.n, got, tt.want)
		}
	}
}
