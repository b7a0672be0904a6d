package tracking

import (
	"math"
	"time"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

// PredictedPosition represents an aircraft's extrapolated position.
type PredictedPosition struct {
	// Position is the predicted geographic location
	Position coordinates.Geographic

	// PredictionTime is when this prediction is valid
	PredictionTime time.Time

	// Confidence is a measure of prediction reliability (0-1)
	// Lower confidence for longer extrapolations
	Confidence float64
}

// PredictPosition extrapolates where an aircraft will be at a given time,
// assuming it holds its reported speed and heading along a great circle.
// The scope uses it to move 1 Hz traffic smoothly between frames.
//
// Parameters:
//   - aircraft: Last reported state; LastSeen is the time of that report
//   - predictionTime: When to predict the position
//
// Returns: Predicted position with confidence score
func PredictPosition(aircraft adsb.Aircraft, predictionTime time.Time) PredictedPosition {
	deltaT := predictionTime.Sub(aircraft.LastSeen).Seconds()

	// For negative deltas, return the reported position
	if deltaT <= 0 || aircraft.LastSeen.IsZero() {
		return PredictedPosition{
			Position:       aircraft.Position(),
			PredictionTime: predictionTime,
			Confidence:     1.0,
		}
	}

	// 1.0 at 0s, 0.5 at 30s, 0.0 at 60s+
	confidence := math.Max(0.0, 1.0-deltaT/60.0)

	newLat, newLon := predictHorizontalPosition(
		aircraft.Latitude,
		aircraft.Longitude,
		aircraft.Speed,
		aircraft.Heading,
		deltaT,
	)

	return PredictedPosition{
		Position: coordinates.Geographic{
			Latitude:  newLat,
			Longitude: newLon,
			Altitude:  aircraft.Altitude,
		},
		PredictionTime: predictionTime,
		Confidence:     confidence,
	}
}

// predictHorizontalPosition calculates new lat/lon after moving along a great circle path.
// This uses the forward azimuth formula from spherical trigonometry.
//
// Parameters:
//   - lat: Starting latitude in decimal degrees
//   - lon: Starting longitude in decimal degrees
//   - speedKnots: Ground speed in knots
//   - trackDeg: Track (heading) in degrees (0-360, 0=North)
//   - deltaT: Time delta in seconds
//
// Returns: New latitude and longitude in decimal degrees
func predictHorizontalPosition(lat, lon, speedKnots, trackDeg, deltaT float64) (float64, float64) {
	latRad := lat * coordinates.DegreesToRadians
	lonRad := lon * coordinates.DegreesToRadians
	trackRad := trackDeg * coordinates.DegreesToRadians

	// 1 knot = 1 nautical mile per hour
	distanceMeters := speedKnots * coordinates.MetersPerNauticalMile * (deltaT / 3600.0)
	angularDistance := distanceMeters / coordinates.EarthRadiusMeters

	// lat2 = asin(sin(lat1)*cos(d) + cos(lat1)*sin(d)*cos(track))
	newLatRad := math.Asin(
		math.Sin(latRad)*math.Cos(angularDistance) +
			math.Cos(latRad)*math.Sin(angularDistance)*math.Cos(trackRad),
	)

	// lon2 = lon1 + atan2(sin(track)*sin(d)*cos(lat1), cos(d)-sin(lat1)*sin(lat2))
	newLonRad := lonRad + math.Atan2(
		math.Sin(trackRad)*math.Sin(angularDistance)*math.Cos(latRad),
		math.Cos(angularDistance)-math.Sin(latRad)*math.Sin(newLatRad),
	)

	newLat := newLatRad * coordinates.RadiansToDegrees
	newLon := coordinates.NormalizeLongitude(newLonRad * coordinates.RadiansToDegrees)

	return newLat, newLon
}
