package sim

import (
	"fmt"
	"time"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/config"
	"github.com/unklstewy/ads-bsim/pkg/coordinates"
	"github.com/unklstewy/ads-bsim/pkg/tracking"
)

// TrafficResetMessage is returned by POST /reset on the traffic service.
const TrafficResetMessage = "Other aircraft positions reset"

// NewTraffic creates the multi-aircraft traffic simulator. Aircraft are
// scattered around center; a zero cfg.Seed picks a time based seed.
func NewTraffic(cfg config.TrafficConfig, center coordinates.Geographic, opts ...Option) *Simulator {
	seedValue := cfg.Seed
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}
	rng := NewRand(seedValue)

	seed := func() ([]adsb.Aircraft, []tracking.HeadingPolicy) {
		fleet := make([]adsb.Aircraft, cfg.Count)
		policies := make([]tracking.HeadingPolicy, cfg.Count)
		drift := tracking.RandomDrift{
			ProbabilityPerSecond: cfg.DriftProbabilityPerSecond,
			MaxDeltaDeg:          cfg.MaxDriftDeg,
			Rand:                 rng,
		}
		for i := range fleet {
			fleet[i] = randomAircraft(rng, fmt.Sprintf("AC%d", i+1), cfg, center)
			policies[i] = drift
		}
		return fleet, policies
	}

	interval := time.Duration(cfg.TickMillis) * time.Millisecond
	return newSimulator("traffic", interval, seed, encodeTraffic, opts...)
}

// randomAircraft places one aircraft inside the spread box around center.
// Altitude, speed and heading are whole numbers.
func randomAircraft(rng *Rand, id string, cfg config.TrafficConfig, center coordinates.Geographic) adsb.Aircraft {
	lat := center.Latitude + (rng.Float64()-0.5)*2*cfg.SpreadDeg
	if lat > 90 {
		lat = 90
	} else if lat < -90 {
		lat = -90
	}
	lon := coordinates.NormalizeLongitude(center.Longitude + (rng.Float64()-0.5)*2*cfg.SpreadDeg)

	return adsb.Aircraft{
		ID:        id,
		Latitude:  lat,
		Longitude: lon,
		Altitude:  cfg.MinAltitude + float64(boundedInt(rng, cfg.MaxAltitude-cfg.MinAltitude)),
		Speed:     cfg.MinSpeed + float64(boundedInt(rng, cfg.MaxSpeed-cfg.MinSpeed)),
		Heading:   float64(rng.Intn(360)),
	}
}

// boundedInt draws from [0, span) and tolerates an empty range.
func boundedInt(rng *Rand, span float64) int {
	if span < 1 {
		return 0
	}
	return rng.Intn(int(span))
}
