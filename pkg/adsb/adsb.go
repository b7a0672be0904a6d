package adsb

import (
	"time"

	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

// HostID is the reserved identifier of the primary (ownship) aircraft.
const HostID = "host"

// Aircraft represents one simulated aircraft.
// All position data is in WGS84 coordinate system.
type Aircraft struct {
	// ID is unique within a stream; "host" is reserved for the ownship
	ID string

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64

	// Longitude in decimal degrees (-180 to +180]
	Longitude float64

	// Altitude in feet, informational only
	Altitude float64

	// Speed is the ground speed in knots
	Speed float64

	// Heading in degrees [0, 360)
	// 0 = North, 90 = East, 180 = South, 270 = West
	Heading float64

	// LastSeen is the timestamp of the last position update
	LastSeen time.Time
}

// Position returns the aircraft location as a geographic point.
func (a Aircraft) Position() coordinates.Geographic {
	return coordinates.Geographic{
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Altitude:  a.Altitude,
	}
}

// IsHost reports whether the aircraft is the ownship.
func (a Aircraft) IsHost() bool {
	return a.ID == HostID
}
