package main

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/bullseye"
	"github.com/unklstewy/ads-bsim/pkg/coordinates"
	"github.com/unklstewy/ads-bsim/pkg/store"
	"github.com/unklstewy/ads-bsim/pkg/tracking"
	"github.com/unklstewy/ads-bsim/pkg/view"
)

const (
	// Redraw period; traffic is extrapolated between its 1 Hz frames
	frameInterval = 100 * time.Millisecond

	// Longest extrapolation applied to a track
	maxExtrapolation = 2 * time.Second

	// Bounds a reset including one wait for the server's Retry-After
	resetTimeout = 30 * time.Second

	infoWidth = 34
	minCols   = 40
	minRows   = 12

	zoomStep   = 0.5
	minZoom    = 2.0
	maxZoom    = 14.0
	panStep    = 4.0  // cells
	rotateStep = 15.0 // degrees
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
)

type frameMsg time.Time

type snapshotMsg store.Snapshot

type connMsg struct {
	stream string
	state  adsb.ConnectionState
}

type resetMsg struct {
	target  string
	message string
	err     error
}

type bullseyeMsg struct {
	ref *bullseye.Reference
	err error
}

type model struct {
	store        *store.Store
	view         *view.Controller
	bullseyes    bullseye.Store
	hostReset    *adsb.ResetClient
	trafficReset *adsb.ResetClient

	snap     store.Snapshot
	bullseye *bullseye.Reference
	conn     map[string]adsb.ConnectionState
	zoom     float64
	now      time.Time

	width  int
	height int

	status string
	err    error
}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(frame(), m.loadBullseye())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		cols, rows := m.radarSize()
		m.view.Resize(cols, rows*pixelsPerRow)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		m.now = time.Time(msg)
		return m, frame()

	case snapshotMsg:
		m.snap = store.Snapshot(msg)
		if m.snap.Host != nil {
			m.view.UpdateHost(m.snap.Host.Aircraft)
		}

	case connMsg:
		m.conn[msg.stream] = msg.state

	case resetMsg:
		if msg.err != nil {
			if rle, ok := adsb.IsRateLimitError(msg.err); ok {
				m.status = fmt.Sprintf("%s reset limited, retry in %s", msg.target, rle.RetryAfter.Round(time.Second))
			} else {
				m.err = msg.err
			}
			break
		}
		m.status = msg.message

	case bullseyeMsg:
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.bullseye = msg.ref
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key clears an error
	if m.err != nil {
		m.err = nil
		if msg.String() != "q" && msg.String() != "ctrl+c" {
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "c":
		mode := m.view.Toggle()
		m.status = "Centering: " + mode.String()
	case "b":
		n := m.store.CycleBreadcrumbs()
		m.status = fmt.Sprintf("Breadcrumbs: %d", n)
	case "+", "=":
		m.setZoom(m.zoom + zoomStep)
	case "-", "_":
		m.setZoom(m.zoom - zoomStep)
	case "up", "k":
		m.view.Pan(0, -panStep*pixelsPerRow)
	case "down", "j":
		m.view.Pan(0, panStep*pixelsPerRow)
	case "left", "h":
		m.view.Pan(-panStep*2, 0)
	case "right", "l":
		m.view.Pan(panStep*2, 0)
	case "[":
		m.view.Rotate(-rotateStep)
	case "]":
		m.view.Rotate(rotateStep)
	case "tab":
		m.selectNext(1)
	case "shift+tab":
		m.selectNext(-1)
	case "esc":
		m.view.Deselect()
	case "r":
		m.status = "Resetting host..."
		return m, reset("Host", m.hostReset)
	case "R":
		m.status = "Resetting traffic..."
		return m, reset("Traffic", m.trafficReset)
	case "g":
		return m, m.loadBullseye()
	}
	return m, nil
}

func (m *model) setZoom(z float64) {
	m.zoom = math.Max(minZoom, math.Min(maxZoom, z))
	m.view.SetZoom(m.zoom)
	m.status = fmt.Sprintf("Zoom: %.1f", m.zoom)
}

// selectNext steps the selection through traffic ordered by range.
func (m *model) selectNext(step int) {
	ids := m.trafficByRange()
	if len(ids) == 0 {
		m.view.Deselect()
		return
	}
	current, _ := m.view.Selected()
	idx := -1
	for i, id := range ids {
		if id == current {
			idx = i
			break
		}
	}
	if idx < 0 && step < 0 {
		idx = 0
	}
	next := ((idx+step)%len(ids) + len(ids)) % len(ids)
	m.view.Select(ids[next])
}

func (m model) trafficByRange() []string {
	type ranged struct {
		id string
		nm float64
	}
	list := make([]ranged, 0, len(m.snap.Traffic))
	for _, t := range m.snap.Traffic {
		r := ranged{id: t.Aircraft.ID}
		if m.snap.Host != nil {
			r.nm = coordinates.DistanceNauticalMiles(m.snap.Host.Aircraft.Position(), t.Aircraft.Position())
		}
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].nm != list[j].nm {
			return list[i].nm < list[j].nm
		}
		return list[i].id < list[j].id
	})
	ids := make([]string, len(list))
	for i, r := range list {
		ids[i] = r.id
	}
	return ids
}

// reset posts a reset, retrying once after the server's Retry-After hint.
func reset(target string, client *adsb.ResetClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
		defer cancel()

		retry := adsb.DefaultRetryConfig()
		retry.MaxRetries = 1
		retry.MaxDelay = resetTimeout

		var message string
		var last error
		adsb.RetryWithBackoff(ctx, retry, func() error {
			message, last = client.Reset(ctx)
			return last
		})
		return resetMsg{target: target, message: message, err: last}
	}
}

func (m model) loadBullseye() tea.Cmd {
	if m.bullseyes == nil {
		return nil
	}
	s := m.bullseyes
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ref, err := s.Load(ctx)
		if err != nil {
			return bullseyeMsg{err: fmt.Errorf("failed to load bullseye: %w", err)}
		}
		return bullseyeMsg{ref: ref}
	}
}

// radarSize returns the radar grid size in cells.
func (m model) radarSize() (cols, rows int) {
	cols = m.width - infoWidth - 4
	rows = m.height - 5
	if cols < minCols {
		cols = minCols
	}
	if rows < minRows {
		rows = minRows
	}
	return cols, rows
}

// extrapolated moves traffic forward from its last frame to now.
func (m model) extrapolated() []store.Track {
	out := make([]store.Track, len(m.snap.Traffic))
	for i, t := range m.snap.Traffic {
		at := m.now
		if limit := t.Aircraft.LastSeen.Add(maxExtrapolation); at.After(limit) {
			at = limit
		}
		p := tracking.PredictPosition(t.Aircraft, at).Position
		t.Aircraft.Latitude, t.Aircraft.Longitude = p.Latitude, p.Longitude
		out[i] = t
	}
	return out
}

func (m model) bullseyePoint() *coordinates.Geographic {
	if m.bullseye == nil {
		return nil
	}
	p, err := m.bullseye.Point()
	if err != nil {
		return nil
	}
	return &p
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("ADS-BSIM SCOPE"))
	s.WriteString("  ")
	s.WriteString(helpStyle.Render(fmt.Sprintf("%s  zoom %.1f  crumbs %d",
		m.view.Mode(), m.zoom, m.store.BreadcrumbCount())))
	s.WriteString("\n\n")

	cols, rows := m.radarSize()
	selected, _ := m.view.Selected()
	sc := scene{
		pose:     m.view.Pose(),
		cols:     cols,
		rows:     rows,
		host:     m.snap.Host,
		traffic:  m.extrapolated(),
		selected: selected,
		bullseye: m.bullseyePoint(),
	}

	var radar strings.Builder
	radar.WriteString(borderStyle.Render("┌" + strings.Repeat("─", cols) + "┐"))
	radar.WriteByte('\n')
	for _, line := range strings.Split(sc.render().String(), "\n") {
		radar.WriteString(borderStyle.Render("│"))
		radar.WriteString(line)
		radar.WriteString(borderStyle.Render("│"))
		radar.WriteByte('\n')
	}
	radar.WriteString(borderStyle.Render("└" + strings.Repeat("─", cols) + "┘"))

	s.WriteString(sideBySide(radar.String(), m.renderInfo(), cols+2))
	s.WriteString("\n")

	switch {
	case m.err != nil:
		s.WriteString(errStyle.Render(fmt.Sprintf("Error: %v (press any key)", m.err)))
	case m.status != "":
		s.WriteString(warnStyle.Render(m.status))
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("C: Center  B: Crumbs  +/-: Zoom  ←↑↓→: Pan  [ ]: Rotate  TAB: Select  R/r: Reset  G: Bullseye  Q: Quit"))

	return s.String()
}

func (m model) renderInfo() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("STREAMS"))
	b.WriteByte('\n')
	for _, name := range []string{"host", "traffic"} {
		state := m.conn[name]
		style := errStyle
		switch state {
		case adsb.Connected:
			style = okStyle
		case adsb.Connecting:
			style = warnStyle
		}
		b.WriteString(fmt.Sprintf("%-8s %s\n", name, style.Render(state.String())))
	}
	b.WriteString(fmt.Sprintf("tracks   %d\n", len(m.snap.Traffic)))
	b.WriteString(fmt.Sprintf("dropped  %d\n\n", m.store.Dropped()))

	b.WriteString(headerStyle.Render("OWNSHIP"))
	b.WriteByte('\n')
	if h := m.snap.Host; h != nil {
		a := h.Aircraft
		b.WriteString(fmt.Sprintf("POS  %.4f %.4f\n", a.Latitude, a.Longitude))
		b.WriteString(fmt.Sprintf("ALT  %.0f ft\n", a.Altitude))
		b.WriteString(fmt.Sprintf("SPD  %.0f kt  HDG %03.0f\n", a.Speed, coordinates.NormalizeHeading(a.Heading)))
	} else {
		b.WriteString(helpStyle.Render("waiting for host"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	b.WriteString(headerStyle.Render("BULLSEYE"))
	b.WriteByte('\n')
	if m.bullseye != nil {
		b.WriteString(m.bullseye.String())
	} else {
		b.WriteString(helpStyle.Render("not set"))
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("TRACK"))
	b.WriteByte('\n')
	if info, ok := m.view.SelectedTrack(m.snap, m.bullseyePoint()); ok {
		b.WriteString(strings.Join(info.Lines(), "\n"))
	} else {
		b.WriteString(helpStyle.Render("TAB to select"))
	}

	return b.String()
}
