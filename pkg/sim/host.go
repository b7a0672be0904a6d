package sim

import (
	"time"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/config"
	"github.com/unklstewy/ads-bsim/pkg/tracking"
)

// HostResetMessage is returned by POST /reset on the host service.
const HostResetMessage = "Host aircraft position reset"

// NewHost creates the single-aircraft ownship simulator.
func NewHost(cfg config.HostConfig, opts ...Option) *Simulator {
	policy := hostPolicy(cfg)

	seed := func() ([]adsb.Aircraft, []tracking.HeadingPolicy) {
		if r, ok := policy.(tracking.Resettable); ok {
			r.Reset()
		}
		host := adsb.Aircraft{
			ID:        adsb.HostID,
			Latitude:  cfg.Latitude,
			Longitude: cfg.Longitude,
			Altitude:  cfg.Altitude,
			Speed:     cfg.Speed,
			Heading:   cfg.Heading,
		}
		return []adsb.Aircraft{host}, []tracking.HeadingPolicy{policy}
	}

	interval := time.Duration(cfg.TickMillis) * time.Millisecond
	return newSimulator("host", interval, seed, encodeHost, opts...)
}

func hostPolicy(cfg config.HostConfig) tracking.HeadingPolicy {
	if cfg.TurnPolicy == config.TurnPolicyLegs {
		return tracking.NewLegSchedule(cfg.StraightLegSeconds, cfg.TurnLegSeconds, cfg.TurnRateDegPerSec)
	}
	return tracking.ConstantTurn{RateDegPerSec: cfg.TurnRateDegPerSec}
}
