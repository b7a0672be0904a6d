// Package sim runs the host and traffic simulations. Both are driven by the
// same fleet engine: a fixed tick advances every aircraft with the shared
// position integrator and hands a complete snapshot to a publisher.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/tracking"
)

// Snapshot is the full fleet state after one tick.
type Snapshot struct {
	Aircraft []adsb.Aircraft
	Time     time.Time
}

// Stats are cumulative counters exposed by /health and /metrics.
type Stats struct {
	Ticks    uint64
	Failures uint64
	Resets   uint64
	Aircraft int
	LastTick time.Time
}

// seedFunc builds the initial fleet and one heading policy per aircraft.
type seedFunc func() ([]adsb.Aircraft, []tracking.HeadingPolicy)

// encodeFunc renders a snapshot in the stream's wire format.
type encodeFunc func(Snapshot) ([]byte, error)

// Simulator owns a fleet of aircraft and advances it on a fixed tick.
type Simulator struct {
	name     string
	interval time.Duration
	seed     seedFunc
	encode   encodeFunc
	now      func() time.Time

	mu       sync.Mutex
	fleet    []adsb.Aircraft
	policies []tracking.HeadingPolicy
	last     time.Time
	stats    Stats
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

func newSimulator(name string, interval time.Duration, seed seedFunc, encode encodeFunc, opts ...Option) *Simulator {
	s := &Simulator{
		name:     name,
		interval: interval,
		seed:     seed,
		encode:   encode,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fleet, s.policies = seed()
	s.last = s.now()
	s.stampFleet(s.last)
	return s
}

// Name identifies the simulator in logs and metrics.
func (s *Simulator) Name() string {
	return s.name
}

// Interval is the tick period used by Run.
func (s *Simulator) Interval() time.Duration {
	return s.interval
}

// Run ticks the simulation until ctx is cancelled, passing each snapshot to
// publish. A panic inside one tick is logged and the loop continues.
func (s *Simulator) Run(ctx context.Context, publish func(Snapshot)) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("🛫 %s simulator running (%v tick)", s.name, s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("🛑 %s simulator stopped", s.name)
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("❌ PANIC in %s tick: %v", s.name, r)
					}
				}()
				snap := s.Tick()
				if publish != nil {
					publish(snap)
				}
			}()
		}
	}
}

// Tick advances the fleet by the wall time elapsed since the previous tick
// (or the last reset) and returns the new snapshot.
func (s *Simulator) Tick() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	elapsed := now.Sub(s.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	s.last = now

	return s.stepLocked(elapsed, now)
}

// Step advances the fleet by an explicit number of seconds.
func (s *Simulator) Step(elapsedSeconds float64) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.last.Add(time.Duration(elapsedSeconds * float64(time.Second)))
	s.last = now
	return s.stepLocked(elapsedSeconds, now)
}

func (s *Simulator) stepLocked(elapsed float64, now time.Time) Snapshot {
	for i := range s.fleet {
		next, err := s.integrate(i, elapsed)
		if err != nil {
			// Keep the previous state; other aircraft still advance
			s.stats.Failures++
			log.Printf("⚠️  %s: %s not advanced: %v", s.name, s.fleet[i].ID, err)
			continue
		}
		next.LastSeen = now
		s.fleet[i] = next
	}

	s.stats.Ticks++
	s.stats.LastTick = now
	return s.snapshotLocked(now)
}

func (s *Simulator) integrate(i int, elapsed float64) (next adsb.Aircraft, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return tracking.Integrate(s.fleet[i], elapsed, s.policies[i])
}

// Reset restores the seed state and restarts elapsed-time accounting.
func (s *Simulator) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fleet, s.policies = s.seed()
	s.last = s.now()
	s.stampFleet(s.last)
	s.stats.Resets++

	log.Printf("🔄 %s simulator reset (%d aircraft)", s.name, len(s.fleet))
	return s.snapshotLocked(s.last)
}

// Snapshot returns the current fleet without advancing it.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(s.last)
}

// Stats returns a copy of the simulator counters.
func (s *Simulator) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Aircraft = len(s.fleet)
	return st
}

// Encode renders a snapshot in this simulator's wire format.
func (s *Simulator) Encode(snap Snapshot) ([]byte, error) {
	return s.encode(snap)
}

func (s *Simulator) snapshotLocked(t time.Time) Snapshot {
	fleet := make([]adsb.Aircraft, len(s.fleet))
	copy(fleet, s.fleet)
	return Snapshot{Aircraft: fleet, Time: t}
}

func (s *Simulator) stampFleet(t time.Time) {
	for i := range s.fleet {
		s.fleet[i].LastSeen = t
	}
}

func encodeTraffic(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(adsb.NewTrafficMessages(snap.Aircraft))
	if err != nil {
		return nil, fmt.Errorf("failed to encode traffic snapshot: %w", err)
	}
	return data, nil
}

func encodeHost(snap Snapshot) ([]byte, error) {
	if len(snap.Aircraft) == 0 {
		return nil, fmt.Errorf("host snapshot is empty")
	}
	data, err := json.Marshal(adsb.NewHostMessage(snap.Aircraft[0]))
	if err != nil {
		return nil, fmt.Errorf("failed to encode host snapshot: %w", err)
	}
	return data, nil
}
