package tracking

import (
	"errors"
	"fmt"
	"math"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

// MinCosLatitude floors cos(latitude) in the longitude step so the
// east-west displacement stays finite near the poles (about 89.4°).
const MinCosLatitude = 0.01

var (
	// ErrInvalidState is returned for non-finite or out of range aircraft state.
	ErrInvalidState = errors.New("invalid aircraft state")

	// ErrInvalidElapsed is returned for negative or non-finite time steps.
	ErrInvalidElapsed = errors.New("invalid elapsed time")
)

// SpeedDegreesPerSecond converts knots to degrees of latitude per second
// (one nautical mile per minute of arc).
func SpeedDegreesPerSecond(speedKnots float64) float64 {
	return speedKnots / 3600.0 / 60.0
}

// Integrate advances an aircraft by elapsedSeconds of dead reckoning.
//
// The heading policy runs first, then the aircraft moves along the new
// heading on a flat-earth approximation:
//
//	lat' = lat + s·t·cos(h)
//	lon' = lon + s·t·sin(h) / cos(lat)
//
// The returned state has longitude in (-180, 180] and heading in [0, 360).
// A zero step returns the input unchanged.
func Integrate(state adsb.Aircraft, elapsedSeconds float64, policy HeadingPolicy) (adsb.Aircraft, error) {
	if err := Validate(state); err != nil {
		return state, err
	}
	if math.IsNaN(elapsedSeconds) || math.IsInf(elapsedSeconds, 0) || elapsedSeconds < 0 {
		return state, fmt.Errorf("%w: %v", ErrInvalidElapsed, elapsedSeconds)
	}
	if elapsedSeconds == 0 {
		return state, nil
	}

	heading := state.Heading
	if policy != nil {
		heading = policy.NextHeading(heading, elapsedSeconds)
	}

	step := SpeedDegreesPerSecond(state.Speed) * elapsedSeconds
	headingRad := heading * coordinates.DegreesToRadians
	cosLat := math.Max(math.Cos(state.Latitude*coordinates.DegreesToRadians), MinCosLatitude)

	lat := state.Latitude + step*math.Cos(headingRad)
	lon := state.Longitude + step*math.Sin(headingRad)/cosLat

	// Crossing a pole continues down the opposite meridian
	if lat > 90 {
		lat = 180 - lat
		lon += 180
		heading = 180 - heading
	} else if lat < -90 {
		lat = -180 - lat
		lon += 180
		heading = 180 - heading
	}

	next := state
	next.Latitude = lat
	next.Longitude = coordinates.NormalizeLongitude(lon)
	next.Heading = coordinates.NormalizeHeading(heading)

	if err := Validate(next); err != nil {
		return state, err
	}
	return next, nil
}

// Validate rejects state the integrator cannot advance.
func Validate(state adsb.Aircraft) error {
	for name, v := range map[string]float64{
		"latitude":  state.Latitude,
		"longitude": state.Longitude,
		"speed":     state.Speed,
		"heading":   state.Heading,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidState, name, v)
		}
	}
	if math.Abs(state.Latitude) > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidState, state.Latitude)
	}
	if state.Speed < 0 {
		return fmt.Errorf("%w: negative speed %v", ErrInvalidState, state.Speed)
	}
	return nil
}
