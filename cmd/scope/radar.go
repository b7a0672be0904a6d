package main

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/ads-bsim/pkg/coordinates"
	"github.com/unklstewy/ads-bsim/pkg/store"
	"github.com/unklstewy/ads-bsim/pkg/view"
)

// Terminal cells are about twice as tall as they are wide, so the view
// controller works on a viewport of width x 2*height square pixels.
const pixelsPerRow = 2

// Drawing priorities; a higher layer wins a contested cell
const (
	layerRing = iota + 1
	layerMarker
	layerTrail
	layerBullseye
	layerTraffic
	layerSelected
	layerHost
)

var (
	ringStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	markerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	hostStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	trafficStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	bullseyeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("201"))

	// Breadcrumb shades from newest to oldest
	trailShades = []lipgloss.Color{"252", "247", "243", "239"}
)

// Heading arrows in 45° steps, clockwise from screen up
var arrows = []rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

type cell struct {
	r     rune
	style lipgloss.Style
	layer int
}

// canvas is a character grid with per-cell styles.
type canvas struct {
	w, h  int
	cells [][]cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]cell, h)}
	for i := range c.cells {
		c.cells[i] = make([]cell, w)
	}
	return c
}

func (c *canvas) set(col, row int, r rune, style lipgloss.Style, layer int) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return
	}
	if c.cells[row][col].layer > layer {
		return
	}
	c.cells[row][col] = cell{r: r, style: style, layer: layer}
}

func (c *canvas) text(col, row int, s string, style lipgloss.Style, layer int) {
	for i, r := range []rune(s) {
		c.set(col+i, row, r, style, layer)
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for row := range c.cells {
		for _, cl := range c.cells[row] {
			if cl.layer == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(cl.style.Render(string(cl.r)))
		}
		if row < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// scene is everything the radar draws for one frame.
type scene struct {
	pose     view.Pose
	cols     int
	rows     int
	host     *store.Track
	traffic  []store.Track
	selected string
	bullseye *coordinates.Geographic
}

// projectPoint maps a projected point to a cell.
func (s scene) projectPoint(p view.Point) (col, row int) {
	x, y := view.MapToScreen(p, s.pose, s.cols, s.rows*pixelsPerRow)
	return int(math.Floor(x)), int(math.Floor(y / pixelsPerRow))
}

func (s scene) project(g coordinates.Geographic) (col, row int) {
	return s.projectPoint(view.FromLonLat(g))
}

// arrow picks the glyph for a track heading as seen on screen.
func (s scene) arrow(heading float64) rune {
	screen := coordinates.NormalizeHeading(heading + s.pose.Rotation*coordinates.RadiansToDegrees)
	return arrows[int(math.Round(screen/45))%len(arrows)]
}

func trailStyle(i, n int) lipgloss.Style {
	shade := int((1 - view.BreadcrumbOpacity(i, n)) * float64(len(trailShades)))
	if shade >= len(trailShades) {
		shade = len(trailShades) - 1
	}
	return lipgloss.NewStyle().Foreground(trailShades[shade])
}

// render draws the scene into a cols x rows grid.
func (s scene) render() *canvas {
	c := newCanvas(s.cols, s.rows)

	if s.host != nil {
		s.drawRings(c, s.host.Aircraft.Position())
	}

	if s.bullseye != nil {
		col, row := s.project(*s.bullseye)
		c.set(col, row, '⊕', bullseyeStyle, layerBullseye)
	}

	for _, t := range s.traffic {
		s.drawTrail(c, t.Trail)
		col, row := s.project(t.Aircraft.Position())
		style, layer := trafficStyle, layerTraffic
		if t.Aircraft.ID == s.selected {
			style, layer = selectedStyle, layerSelected
			c.text(col+1, row, t.Aircraft.ID, selectedStyle, layerSelected)
		}
		c.set(col, row, s.arrow(t.Aircraft.Heading), style, layer)
	}

	if s.host != nil {
		s.drawTrail(c, s.host.Trail)
		col, row := s.project(s.host.Aircraft.Position())
		c.set(col, row, s.arrow(s.host.Aircraft.Heading), hostStyle, layerHost)
	}

	return c
}

func (s scene) drawTrail(c *canvas, trail []coordinates.Geographic) {
	for i, p := range trail {
		col, row := s.project(p)
		c.set(col, row, '·', trailStyle(i, len(trail)), layerTrail)
	}
}

func (s scene) drawRings(c *canvas, host coordinates.Geographic) {
	rings := view.ComputeRings(host, s.pose, s.cols)

	for _, ring := range []view.Ring{rings.Inner, rings.Outer} {
		for deg := 0; deg < 360; deg += 2 {
			col, row := s.projectPoint(view.OffsetCoordinate(rings.Center, float64(deg), ring.Radius))
			c.set(col, row, '.', ringStyle, layerRing)
		}
		col, row := s.projectPoint(ring.LabelAt)
		c.text(col, row, ring.Label, labelStyle, layerMarker)
	}

	for _, m := range rings.Markers {
		col, row := s.projectPoint(m.Position)
		c.text(col-1, row, m.Label, markerStyle, layerMarker)
	}
}

// sideBySide joins two blocks of lines with a gap, padding the left block.
func sideBySide(left, right string, leftWidth int) string {
	l := strings.Split(left, "\n")
	r := strings.Split(right, "\n")
	n := len(l)
	if len(r) > n {
		n = len(r)
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		line := ""
		if i < len(l) {
			line = l[i]
		}
		b.WriteString(line)
		if pad := leftWidth - lipgloss.Width(line); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString("  ")
		if i < len(r) {
			b.WriteString(r[i])
		}
		if i < n-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
