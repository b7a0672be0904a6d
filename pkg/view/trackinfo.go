package view

import (
	"fmt"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/coordinates"
	"github.com/unklstewy/ads-bsim/pkg/store"
)

// TrackInfo is the readout for a selected aircraft.
type TrackInfo struct {
	ID       string
	Altitude float64
	Speed    float64
	Heading  float64
	Mach     float64

	// BRH is bearing and range from the host plus the target heading
	BRH string

	// Bullseye is bearing and range from the bullseye, or "N/A"
	Bullseye string
}

// NewTrackInfo builds the readout for target as seen from host.
func NewTrackInfo(host, target adsb.Aircraft, bullseye *coordinates.Geographic) TrackInfo {
	b, r := coordinates.BearingRange(host.Position(), target.Position())
	return TrackInfo{
		ID:       target.ID,
		Altitude: target.Altitude,
		Speed:    target.Speed,
		Heading:  target.Heading,
		Mach:     coordinates.Mach(target.Speed),
		BRH:      coordinates.FormatBRH(b, r, target.Heading),
		Bullseye: coordinates.FormatBullseye(bullseye, target.Position()),
	}
}

// Lines renders the readout one field per line.
func (t TrackInfo) Lines() []string {
	return []string{
		fmt.Sprintf("ID   %s", t.ID),
		fmt.Sprintf("ALT  %.0f ft", t.Altitude),
		fmt.Sprintf("SPD  %.0f kt  M%.2f", t.Speed, t.Mach),
		fmt.Sprintf("BRH  %s", t.BRH),
		fmt.Sprintf("BULL %s", t.Bullseye),
	}
}

// SelectedTrack returns the readout for the selected aircraft in snap.
// It is false when nothing is selected, the selection is gone, or there is
// no host to measure from.
func (c *Controller) SelectedTrack(snap store.Snapshot, bullseye *coordinates.Geographic) (TrackInfo, bool) {
	id, ok := c.Selected()
	if !ok || snap.Host == nil {
		return TrackInfo{}, false
	}
	track, ok := snap.Find(id)
	if !ok {
		return TrackInfo{}, false
	}
	return NewTrackInfo(snap.Host.Aircraft, track.Aircraft, bullseye), true
}
