package view

import (
	"math"
	"testing"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
)

func testHost(heading float64) adsb.Aircraft {
	return adsb.Aircraft{ID: adsb.HostID, Latitude: 36.8529, Longitude: -76.9214, Heading: heading, Speed: 300}
}

// TestModeCycle tests the toggle order.
func TestModeCycle(t *testing.T) {
	c := NewController(7, 800, 600)
	if c.Mode() != ModeCenterWithHeading {
		t.Fatalf("Expected initial mode %s, got %s", ModeCenterWithHeading, c.Mode())
	}

	c.SetMode(ModeNone)
	want := []Mode{ModeCenterWithHeading, ModeCenterWithHeadingOffset, ModeCenter, ModeNone, ModeCenterWithHeading}
	for _, w := range want {
		if got := c.Toggle(); got != w {
			t.Errorf("Toggle() = %s, want %s", got, w)
		}
	}

	names := map[Mode]string{
		ModeNone:                    "none",
		ModeCenter:                  "center",
		ModeCenterWithHeading:       "center-with-heading",
		ModeCenterWithHeadingOffset: "center-with-heading-offset",
		Mode(42):                    "unknown",
	}
	for m, name := range names {
		if m.String() != name {
			t.Errorf("Mode(%d).String() = %q, want %q", m, m.String(), name)
		}
	}
}

// TestUpdateHost tests the pose each mode produces.
func TestUpdateHost(t *testing.T) {
	host := testHost(270)
	hostPoint := FromLonLat(host.Position())

	t.Run("Center is north up", func(t *testing.T) {
		c := NewController(7, 800, 600)
		c.SetMode(ModeCenter)
		pose, moved := c.UpdateHost(host)
		if !moved {
			t.Fatal("Expected the camera to move")
		}
		if pose.Center != hostPoint || pose.Rotation != 0 {
			t.Errorf("Unexpected pose %+v", pose)
		}
	})

	t.Run("Center with heading rotates", func(t *testing.T) {
		c := NewController(7, 800, 600)
		pose, _ := c.UpdateHost(host)
		if pose.Center != hostPoint {
			t.Errorf("Expected center on host, got %+v", pose.Center)
		}
		if want := -270 * math.Pi / 180; math.Abs(pose.Rotation-want) > tolerance {
			t.Errorf("Rotation = %f, want %f", pose.Rotation, want)
		}
	})

	t.Run("Offset puts the camera ahead", func(t *testing.T) {
		c := NewController(7, 800, 300)
		c.SetMode(ModeCenterWithHeadingOffset)
		pose, _ := c.UpdateHost(testHost(0))

		d := OffsetFraction * 100 * ResolutionForZoom(7)
		if math.Abs(pose.Center.X-hostPoint.X) > tolerance || math.Abs(pose.Center.Y-(hostPoint.Y+d)) > tolerance {
			t.Errorf("Expected camera %f units north of host, got %+v", d, pose.Center)
		}
	})

	t.Run("Offset keeps the host low on screen", func(t *testing.T) {
		for _, heading := range []float64{0, 90, 225} {
			c := NewController(7, 800, 300)
			c.SetMode(ModeCenterWithHeadingOffset)
			c.UpdateHost(testHost(heading))

			x, y := c.MapToScreen(FromLonLat(testHost(heading).Position()))
			if math.Abs(x-400) > 1e-6 || math.Abs(y-220) > 1e-6 {
				t.Errorf("Heading %f: host drawn at (%f, %f), want (400, 220)", heading, x, y)
			}
		}
	})

	t.Run("None does not follow", func(t *testing.T) {
		c := NewController(7, 800, 600)
		c.SetMode(ModeNone)
		before := c.Pose()
		if _, moved := c.UpdateHost(host); moved {
			t.Error("Camera should not move in mode none")
		}
		if c.Pose() != before {
			t.Error("Pose changed in mode none")
		}
	})

	t.Run("Zoom keeps the mode", func(t *testing.T) {
		c := NewController(7, 800, 600)
		c.UpdateHost(host)
		c.SetZoom(9)
		if c.Mode() != ModeCenterWithHeading {
			t.Errorf("Zoom changed mode to %s", c.Mode())
		}
		if math.Abs(c.Pose().Zoom()-9) > 1e-9 {
			t.Errorf("Expected zoom 9, got %f", c.Pose().Zoom())
		}
	})
}

// TestUserInteraction tests that manual moves disable centering.
func TestUserInteraction(t *testing.T) {
	t.Run("Programmatic updates are ignored", func(t *testing.T) {
		c := NewController(7, 800, 600)
		changed := 0
		c.OnPoseChange(func(Pose) {
			if c.HandleUserPan() || c.HandleUserRotate() {
				changed++
			}
		})

		c.UpdateHost(testHost(90))
		c.UpdateHost(testHost(95))
		if changed != 0 || c.Mode() != ModeCenterWithHeading {
			t.Errorf("Programmatic update disabled centering (mode %s)", c.Mode())
		}
	})

	t.Run("Pan outside the guard", func(t *testing.T) {
		c := NewController(7, 800, 600)
		if !c.HandleUserPan() {
			t.Error("Expected the first pan to change the mode")
		}
		if c.Mode() != ModeNone {
			t.Errorf("Expected mode none, got %s", c.Mode())
		}
		if c.HandleUserPan() {
			t.Error("Second pan should not report a change")
		}
	})

	for _, m := range []Mode{ModeCenter, ModeCenterWithHeading, ModeCenterWithHeadingOffset} {
		t.Run("Drag from "+m.String(), func(t *testing.T) {
			c := NewController(7, 800, 600)
			c.SetMode(m)
			c.UpdateHost(testHost(45))
			before := c.Pose()

			c.Pan(10, 0)
			if c.Mode() != ModeNone {
				t.Errorf("Expected mode none after drag, got %s", c.Mode())
			}
			if c.Pose().Center == before.Center {
				t.Error("Drag did not move the camera")
			}

			// Following updates no longer move the camera
			after := c.Pose()
			c.UpdateHost(testHost(50))
			if c.Pose() != after {
				t.Error("Camera followed the host after a drag")
			}
		})
	}

	t.Run("Rotate", func(t *testing.T) {
		c := NewController(7, 800, 600)
		c.SetMode(ModeCenter)
		c.Rotate(15)
		if c.Mode() != ModeNone {
			t.Errorf("Expected mode none after rotate, got %s", c.Mode())
		}
		if want := 15 * math.Pi / 180; math.Abs(c.Pose().Rotation-want) > tolerance {
			t.Errorf("Rotation = %f, want %f", c.Pose().Rotation, want)
		}
	})

	t.Run("Drag moves content with the pointer", func(t *testing.T) {
		c := NewController(7, 800, 600)
		c.UpdateHost(testHost(120))
		hostPoint := FromLonLat(testHost(120).Position())

		x0, y0 := c.MapToScreen(hostPoint)
		c.Pan(30, -20)
		x1, y1 := c.MapToScreen(hostPoint)
		if math.Abs(x1-x0-30) > 1e-6 || math.Abs(y1-y0+20) > 1e-6 {
			t.Errorf("Host moved by (%f, %f), want (30, -20)", x1-x0, y1-y0)
		}
	})
}

// TestScreenToMap verifies the screen transform round trips.
func TestScreenToMap(t *testing.T) {
	pose := Pose{Center: Point{X: 1000, Y: -500}, Rotation: 1.1, Resolution: 12.5}
	p := Point{X: 1800, Y: 700}

	x, y := MapToScreen(p, pose, 640, 480)
	back := ScreenToMap(x, y, pose, 640, 480)
	if math.Abs(back.X-p.X) > 1e-6 || math.Abs(back.Y-p.Y) > 1e-6 {
		t.Errorf("Round trip gave %+v, want %+v", back, p)
	}

	// North up: a point north of center is above it
	north := Pose{Resolution: 1}
	_, y = MapToScreen(Point{Y: 10}, north, 100, 100)
	if y != 40 {
		t.Errorf("Expected y 40, got %f", y)
	}
}

// TestSelection tests track selection.
func TestSelection(t *testing.T) {
	c := NewController(7, 800, 600)
	if _, ok := c.Selected(); ok {
		t.Error("Expected no initial selection")
	}
	c.Select("AC3")
	if id, ok := c.Selected(); !ok || id != "AC3" {
		t.Errorf("Selected() = %q, %v", id, ok)
	}
	c.Deselect()
	if _, ok := c.Selected(); ok {
		t.Error("Expected selection cleared")
	}
}
