package tracking

import (
	"sync"
)

// HeadingPolicy decides how an aircraft's heading evolves over a time step.
// Implementations must return the input heading when elapsed is zero.
type HeadingPolicy interface {
	NextHeading(heading, elapsedSeconds float64) float64
}

// Resettable policies carry schedule state that is cleared on simulator reset.
type Resettable interface {
	Reset()
}

// Source is the random number source used by RandomDrift.
// Float64 returns a value in [0, 1).
type Source interface {
	Float64() float64
}

// HoldHeading never changes the heading.
type HoldHeading struct{}

func (HoldHeading) NextHeading(heading, _ float64) float64 { return heading }

// ConstantTurn turns left continuously at RateDegPerSec.
type ConstantTurn struct {
	RateDegPerSec float64
}

func (p ConstantTurn) NextHeading(heading, elapsedSeconds float64) float64 {
	return heading - p.RateDegPerSec*elapsedSeconds
}

// LegSchedule alternates straight legs with left turning legs.
// A schedule starts on a straight leg.
type LegSchedule struct {
	StraightSeconds float64
	TurnSeconds     float64
	RateDegPerSec   float64

	mu      sync.Mutex
	turning bool
	inLeg   float64
}

// NewLegSchedule creates a schedule starting on a straight leg.
func NewLegSchedule(straightSeconds, turnSeconds, rateDegPerSec float64) *LegSchedule {
	return &LegSchedule{
		StraightSeconds: straightSeconds,
		TurnSeconds:     turnSeconds,
		RateDegPerSec:   rateDegPerSec,
	}
}

func (p *LegSchedule) NextHeading(heading, elapsedSeconds float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A schedule with no straight legs is a constant turn
	if p.StraightSeconds <= 0 {
		return heading - p.RateDegPerSec*elapsedSeconds
	}
	if p.TurnSeconds <= 0 {
		return heading
	}

	remaining := elapsedSeconds
	for remaining > 0 {
		legLength := p.StraightSeconds
		if p.turning {
			legLength = p.TurnSeconds
		}

		step := legLength - p.inLeg
		if remaining < step {
			step = remaining
		}
		if p.turning {
			heading -= p.RateDegPerSec * step
		}

		p.inLeg += step
		remaining -= step
		if p.inLeg >= legLength-1e-9 {
			p.turning = !p.turning
			p.inLeg = 0
		}
	}
	return heading
}

// Turning reports whether the schedule is currently in a turning leg.
func (p *LegSchedule) Turning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.turning
}

// Reset returns the schedule to the start of a straight leg.
func (p *LegSchedule) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.turning = false
	p.inLeg = 0
}

// RandomDrift occasionally perturbs the heading. The chance of a change is
// ProbabilityPerSecond scaled by the step length, and a change is drawn
// uniformly from [-MaxDeltaDeg, +MaxDeltaDeg).
type RandomDrift struct {
	ProbabilityPerSecond float64
	MaxDeltaDeg          float64
	Rand                 Source
}

func (p RandomDrift) NextHeading(heading, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 || p.Rand == nil {
		return heading
	}
	if p.Rand.Float64() < p.ProbabilityPerSecond*elapsedSeconds {
		heading += (p.Rand.Float64()*2 - 1) * p.MaxDeltaDeg
	}
	return heading
}
