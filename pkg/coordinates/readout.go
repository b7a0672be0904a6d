package coordinates

import (
	"fmt"
	"math"
)

// SpeedOfSoundKnots is the speed of sound at 25,000 ft in the standard atmosphere.
const SpeedOfSoundKnots = 643.855

// Mach converts a true airspeed in knots to a Mach number.
func Mach(speedKnots float64) float64 {
	return speedKnots / SpeedOfSoundKnots
}

// FormatBearingRange renders "BBB°/RNM" with a zero padded, rounded bearing.
func FormatBearingRange(bearingDeg, rangeNM float64) string {
	return fmt.Sprintf("%s°/%.0fNM", formatDegrees(bearingDeg), math.Round(rangeNM))
}

// FormatBRH renders bearing, range and heading as "BBB°/RNM/HHH°".
func FormatBRH(bearingDeg, rangeNM, headingDeg float64) string {
	return fmt.Sprintf("%s/%s°", FormatBearingRange(bearingDeg, rangeNM), formatDegrees(headingDeg))
}

// formatDegrees rounds to a whole degree and pads to three digits.
// 359.6 rounds up to 360 and is shown as 000.
func formatDegrees(deg float64) string {
	d := int(math.Round(NormalizeHeading(deg))) % 360
	return fmt.Sprintf("%03d", d)
}

// FormatBullseye renders the bearing and range from the bullseye to target.
// A nil bullseye renders as "N/A".
func FormatBullseye(bullseye *Geographic, target Geographic) string {
	if bullseye == nil {
		return "N/A"
	}
	b, r := BearingRange(*bullseye, target)
	return FormatBearingRange(b, r)
}
