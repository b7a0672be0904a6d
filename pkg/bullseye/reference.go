// Package bullseye handles the fixed reference point that track readouts
// measure bearing and range from.
package bullseye

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

// Coordinate entry formats.
const (
	FormatDecimalMinutes = "DD MM.mmmm"
	FormatDMS            = "DD MM SSS.sss"
)

var (
	ErrInvalidFormat     = errors.New("invalid bullseye format")
	ErrInvalidDirection  = errors.New("invalid hemisphere")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Reference is a bullseye as the operator entered it. Latitude and
// Longitude hold the text typed in, e.g. "40 44.5678" or "073 59 07.404".
type Reference struct {
	Format       string `json:"format"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
	LatDirection string `json:"lat_direction"`
	LonDirection string `json:"lon_direction"`
}

// Store persists the bullseye across sessions.
type Store interface {
	// Load returns nil and no error when no bullseye has been saved.
	Load(ctx context.Context) (*Reference, error)
	Save(ctx context.Context, ref Reference) error
}

// Validate checks that the reference parses to a position.
func (r Reference) Validate() error {
	switch r.Format {
	case FormatDecimalMinutes, FormatDMS:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, r.Format)
	}
	_, err := r.Point()
	return err
}

// Point returns the bullseye as a geographic position.
func (r Reference) Point() (coordinates.Geographic, error) {
	if !isLatitude(strings.ToUpper(r.LatDirection)) {
		return coordinates.Geographic{}, fmt.Errorf("%w: latitude direction %q", ErrInvalidDirection, r.LatDirection)
	}
	if !isLongitude(strings.ToUpper(r.LonDirection)) {
		return coordinates.Geographic{}, fmt.Errorf("%w: longitude direction %q", ErrInvalidDirection, r.LonDirection)
	}
	lat, err := ParseCoordinate(r.Latitude, r.LatDirection)
	if err != nil {
		return coordinates.Geographic{}, err
	}
	lon, err := ParseCoordinate(r.Longitude, r.LonDirection)
	if err != nil {
		return coordinates.Geographic{}, err
	}
	return coordinates.Geographic{Latitude: lat, Longitude: lon}, nil
}

// ParseCoordinate converts "DD MM.mmmm" or "DD MM SS.sss" text to signed
// decimal degrees. S and W are negative.
func ParseCoordinate(value, direction string) (float64, error) {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	if !isLatitude(dir) && !isLongitude(dir) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	parts := strings.Fields(value)
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q needs degrees and minutes", ErrInvalidCoordinate, value)
	}

	nums := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidCoordinate, value)
		}
		nums[i] = v
	}

	deg, minutes := nums[0], nums[1]
	if deg != math.Trunc(deg) {
		return 0, fmt.Errorf("%w: degrees must be whole in %q", ErrInvalidCoordinate, value)
	}
	if minutes >= 60 {
		return 0, fmt.Errorf("%w: minutes out of range in %q", ErrInvalidCoordinate, value)
	}
	result := deg + minutes/60
	if len(nums) == 3 {
		if minutes != math.Trunc(minutes) {
			return 0, fmt.Errorf("%w: minutes must be whole in %q", ErrInvalidCoordinate, value)
		}
		if nums[2] >= 60 {
			return 0, fmt.Errorf("%w: seconds out of range in %q", ErrInvalidCoordinate, value)
		}
		result += nums[2] / 3600
	}

	limit := 180.0
	if isLatitude(dir) {
		limit = 90
	}
	if result > limit {
		return 0, fmt.Errorf("%w: %q exceeds %v degrees", ErrInvalidCoordinate, value, limit)
	}

	if dir == "S" || dir == "W" {
		result = -result
	}
	return result, nil
}

// NewReference renders a position in the given format.
func NewReference(format string, g coordinates.Geographic) (Reference, error) {
	if format != FormatDecimalMinutes && format != FormatDMS {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	ref := Reference{Format: format, LatDirection: "N", LonDirection: "E"}
	if g.Latitude < 0 {
		ref.LatDirection = "S"
	}
	if g.Longitude < 0 {
		ref.LonDirection = "W"
	}
	ref.Latitude = formatCoordinate(math.Abs(g.Latitude), format, 2)
	ref.Longitude = formatCoordinate(math.Abs(g.Longitude), format, 3)
	return ref, ref.Validate()
}

// String renders the reference as it would be read out, e.g. "N 40 44.5678 W 073 59.1234".
func (r Reference) String() string {
	return fmt.Sprintf("%s %s %s %s", r.LatDirection, r.Latitude, r.LonDirection, r.Longitude)
}

func formatCoordinate(deg float64, format string, width int) string {
	d := math.Floor(deg)
	minutes := (deg - d) * 60
	if format == FormatDecimalMinutes {
		m := math.Round(minutes*10000) / 10000
		if m >= 60 {
			d, m = d+1, 0
		}
		return fmt.Sprintf("%0*d %07.4f", width, int(d), m)
	}

	m := math.Floor(minutes)
	s := math.Round((minutes-m)*60*1000) / 1000
	if s >= 60 {
		m, s = m+1, 0
	}
	if m >= 60 {
		d, m = d+1, 0
	}
	return fmt.Sprintf("%0*d %02d %06.3f", width, int(d), int(m), s)
}

func isLatitude(dir string) bool {
	return dir == "N" || dir == "S"
}

func isLongitude(dir string) bool {
	return dir == "E" || dir == "W"
}
