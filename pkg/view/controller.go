package view

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

// Mode is how the camera follows the host aircraft.
type Mode int

const (
	// ModeNone leaves the camera where the user put it.
	ModeNone Mode = iota
	// ModeCenter keeps the host centered, north up.
	ModeCenter
	// ModeCenterWithHeading keeps the host centered, nose up.
	ModeCenterWithHeading
	// ModeCenterWithHeadingOffset puts the camera ahead of the host so the
	// host sits in the lower part of the view, nose up.
	ModeCenterWithHeadingOffset
)

// OffsetFraction is the share of a third of the viewport height the camera
// is pushed ahead of the host in ModeCenterWithHeadingOffset.
const OffsetFraction = 0.7

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeCenter:
		return "center"
	case ModeCenterWithHeading:
		return "center-with-heading"
	case ModeCenterWithHeadingOffset:
		return "center-with-heading-offset"
	default:
		return "unknown"
	}
}

// Next returns the mode the toggle advances to.
func (m Mode) Next() Mode {
	switch m {
	case ModeNone:
		return ModeCenterWithHeading
	case ModeCenterWithHeading:
		return ModeCenterWithHeadingOffset
	case ModeCenterWithHeadingOffset:
		return ModeCenter
	default:
		return ModeNone
	}
}

// Pose is the camera state. Rotation is in radians, positive clockwise.
type Pose struct {
	Center     Point
	Rotation   float64
	Resolution float64
}

// Zoom returns the zoom level matching the pose resolution.
func (p Pose) Zoom() float64 {
	return ZoomForResolution(p.Resolution)
}

// Controller owns the camera pose and centering mode. It is safe for
// concurrent use.
type Controller struct {
	mu        sync.Mutex
	mode      Mode
	pose      Pose
	width     int
	height    int
	host      *adsb.Aircraft
	selected  string
	listeners []func(Pose)

	// set while a programmatic pose update notifies listeners
	intentional atomic.Bool
}

// NewController creates a controller in ModeCenterWithHeading.
func NewController(zoom float64, width, height int) *Controller {
	return &Controller{
		mode:   ModeCenterWithHeading,
		pose:   Pose{Resolution: ResolutionForZoom(zoom)},
		width:  width,
		height: height,
	}
}

// OnPoseChange registers fn to be called after every pose change.
func (c *Controller) OnPoseChange(fn func(Pose)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Mode returns the current centering mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Pose returns the current camera pose.
func (c *Controller) Pose() Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

// Size returns the viewport size in pixels.
func (c *Controller) Size() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// SetMode switches the centering mode and recenters on the last host fix.
func (c *Controller) SetMode(m Mode) {
	c.mu.Lock()
	c.mode = m
	pose, ok := c.followLocked()
	c.mu.Unlock()
	if ok {
		c.applyIntentional(pose)
	}
}

// Toggle advances the centering mode and returns the new mode.
func (c *Controller) Toggle() Mode {
	next := c.Mode().Next()
	c.SetMode(next)
	return next
}

// Resize updates the viewport size in pixels.
func (c *Controller) Resize(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	pose, ok := c.followLocked()
	c.mu.Unlock()
	if ok {
		c.applyIntentional(pose)
	}
}

// SetZoom changes the resolution. Zooming does not affect the centering mode.
func (c *Controller) SetZoom(zoom float64) {
	c.mu.Lock()
	c.pose.Resolution = ResolutionForZoom(zoom)
	pose, ok := c.followLocked()
	if !ok {
		pose = c.pose
	}
	c.mu.Unlock()
	c.applyIntentional(pose)
}

// UpdateHost records a host fix and moves the camera according to the mode.
// It reports whether the camera moved.
func (c *Controller) UpdateHost(a adsb.Aircraft) (Pose, bool) {
	c.mu.Lock()
	host := a
	c.host = &host
	pose, ok := c.followLocked()
	if !ok {
		pose = c.pose
	}
	c.mu.Unlock()

	if ok {
		c.applyIntentional(pose)
	}
	return pose, ok
}

// HandleUserPan is called when the map center changes. Outside a
// programmatic update it means the user dragged the map, which turns
// centering off. It reports whether the mode changed.
func (c *Controller) HandleUserPan() bool {
	return c.userMoved()
}

// HandleUserRotate is the rotation counterpart of HandleUserPan.
func (c *Controller) HandleUserRotate() bool {
	return c.userMoved()
}

// Pan moves the camera by a screen delta in pixels, as a drag would.
func (c *Controller) Pan(dxPx, dyPx float64) {
	c.mu.Lock()
	dx, dy := rotate(dxPx*c.pose.Resolution, -dyPx*c.pose.Resolution, -c.pose.Rotation)
	c.pose.Center = c.pose.Center.Add(-dx, -dy)
	pose := c.pose
	c.mu.Unlock()

	c.notify(pose)
	c.HandleUserPan()
}

// Rotate turns the camera by deltaDeg clockwise, as a user gesture would.
func (c *Controller) Rotate(deltaDeg float64) {
	c.mu.Lock()
	c.pose.Rotation = normalizeRadians(c.pose.Rotation + deltaDeg*coordinates.DegreesToRadians)
	pose := c.pose
	c.mu.Unlock()

	c.notify(pose)
	c.HandleUserRotate()
}

// Select marks a track as selected.
func (c *Controller) Select(id string) {
	c.mu.Lock()
	c.selected = id
	c.mu.Unlock()
}

// Deselect clears the selection.
func (c *Controller) Deselect() {
	c.Select("")
}

// Selected returns the selected track id.
func (c *Controller) Selected() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != ""
}

// MapToScreen converts a projected point to pixel coordinates, origin at the
// top left of the viewport.
func (c *Controller) MapToScreen(p Point) (x, y float64) {
	c.mu.Lock()
	pose, w, h := c.pose, c.width, c.height
	c.mu.Unlock()
	return MapToScreen(p, pose, w, h)
}

// MapToScreen converts a projected point to pixel coordinates for a pose and
// viewport size.
func MapToScreen(p Point, pose Pose, width, height int) (x, y float64) {
	dx, dy := rotate(p.X-pose.Center.X, p.Y-pose.Center.Y, pose.Rotation)
	x = float64(width)/2 + dx/pose.Resolution
	y = float64(height)/2 - dy/pose.Resolution
	return x, y
}

// ScreenToMap is the inverse of MapToScreen.
func ScreenToMap(x, y float64, pose Pose, width, height int) Point {
	dx := (x - float64(width)/2) * pose.Resolution
	dy := (float64(height)/2 - y) * pose.Resolution
	mx, my := rotate(dx, dy, -pose.Rotation)
	return pose.Center.Add(mx, my)
}

func (c *Controller) userMoved() bool {
	if c.intentional.Load() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == ModeNone {
		return false
	}
	c.mode = ModeNone
	return true
}

// followLocked computes the pose the current mode wants. ok is false when
// the mode does not follow the host or no host fix is known.
func (c *Controller) followLocked() (Pose, bool) {
	if c.host == nil || c.mode == ModeNone {
		return Pose{}, false
	}
	pose := c.pose
	center := FromLonLat(c.host.Position())
	heading := coordinates.NormalizeHeading(c.host.Heading)

	switch c.mode {
	case ModeCenter:
		pose.Center = center
		pose.Rotation = 0
	case ModeCenterWithHeading:
		pose.Center = center
		pose.Rotation = -heading * coordinates.DegreesToRadians
	case ModeCenterWithHeadingOffset:
		distance := OffsetFraction * (float64(c.height) / 3) * pose.Resolution
		pose.Center = OffsetCoordinate(center, heading, distance)
		pose.Rotation = -heading * coordinates.DegreesToRadians
	}
	return pose, true
}

// applyIntentional stores pose and notifies listeners with the guard raised,
// so pan and rotate callbacks fired by the update are not taken as user input.
func (c *Controller) applyIntentional(pose Pose) {
	c.mu.Lock()
	c.pose = pose
	c.mu.Unlock()

	c.intentional.Store(true)
	defer c.intentional.Store(false)
	c.notify(pose)
}

func (c *Controller) notify(pose Pose) {
	c.mu.Lock()
	listeners := append([]func(Pose){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(pose)
	}
}

// rotate turns (x, y) clockwise by angle radians.
func rotate(x, y, angle float64) (float64, float64) {
	sin, cos := math.Sincos(angle)
	return x*cos + y*sin, -x*sin + y*cos
}

func normalizeRadians(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
