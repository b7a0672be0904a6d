// Package store keeps the client side picture: the latest state of every
// aircraft seen on the host and traffic streams plus a bounded breadcrumb
// trail per aircraft.
package store

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
	"github.com/unklstewy/ads-bsim/pkg/coordinates"
)

// BreadcrumbSteps are the trail lengths offered by the breadcrumb toggle.
var BreadcrumbSteps = []int{0, 5, 10, 20}

// NextBreadcrumbCount returns the trail length following current in
// BreadcrumbSteps, wrapping to the first step.
func NextBreadcrumbCount(current int) int {
	for i, n := range BreadcrumbSteps {
		if n == current {
			return BreadcrumbSteps[(i+1)%len(BreadcrumbSteps)]
		}
	}
	return BreadcrumbSteps[0]
}

// Track is one aircraft and its trail, most recent sample first.
type Track struct {
	Aircraft adsb.Aircraft
	Trail    []coordinates.Geographic
}

// Snapshot is a consistent copy of the store contents.
type Snapshot struct {
	Host            *Track
	Traffic         []Track
	BreadcrumbCount int
	Version         uint64
}

// Find returns the track with the given id.
func (s Snapshot) Find(id string) (Track, bool) {
	if s.Host != nil && s.Host.Aircraft.ID == id {
		return *s.Host, true
	}
	for _, t := range s.Traffic {
		if t.Aircraft.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// Store is safe for concurrent use. Writers are the stream handlers;
// readers take snapshots or subscribe.
type Store struct {
	mu          sync.RWMutex
	tracks      map[string]*Track
	breadcrumbs int
	version     uint64
	dropped     uint64
	subs        map[*Subscription]struct{}
}

// New creates an empty store with the given trail length.
func New(breadcrumbCount int) *Store {
	if breadcrumbCount < 0 {
		breadcrumbCount = 0
	}
	return &Store{
		tracks:      make(map[string]*Track),
		breadcrumbs: breadcrumbCount,
		subs:        make(map[*Subscription]struct{}),
	}
}

// ApplyHost records a host report. Missing heading or speed are derived from
// the previous report: heading from the bearing between fixes, speed from the
// distance covered over the time between them. An invalid report is
// rejected and leaves the host track untouched.
func (s *Store) ApplyHost(msg adsb.HostMessage, now time.Time) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := now
	if msg.Timestamp != nil {
		ts = *msg.Timestamp
	}

	next := adsb.Aircraft{
		ID:        adsb.HostID,
		Latitude:  *msg.Latitude,
		Longitude: *msg.Longitude,
		LastSeen:  ts,
	}
	if msg.Altitude != nil {
		next.Altitude = *msg.Altitude
	}

	prev, hadPrev := s.tracks[adsb.HostID]
	if hadPrev && msg.Altitude == nil {
		next.Altitude = prev.Aircraft.Altitude
	}

	switch {
	case msg.Heading != nil:
		next.Heading = coordinates.NormalizeHeading(*msg.Heading)
	case hadPrev:
		next.Heading = prev.Aircraft.Heading
		if h, ok := coordinates.HeadingFromPositions(prev.Aircraft.Position(), next.Position()); ok {
			next.Heading = h
		}
	}

	switch {
	case msg.Speed != nil:
		next.Speed = *msg.Speed
	case hadPrev:
		next.Speed = prev.Aircraft.Speed
		if dt := ts.Sub(prev.Aircraft.LastSeen).Hours(); dt > 0 {
			next.Speed = coordinates.DistanceNauticalMiles(prev.Aircraft.Position(), next.Position()) / dt
		}
	}

	s.upsertLocked(next)
	s.publishLocked()
	return nil
}

// ApplyTraffic records a traffic snapshot. Aircraft missing from the
// snapshot are evicted; the host is never evicted by traffic. Entries
// without a valid position are skipped and their aircraft keep their last
// known state.
func (s *Store) ApplyTraffic(msgs []adsb.TrafficMessage, now time.Time) {
	s.applyTraffic(msgs, nil, now)
}

// applyTraffic upserts msgs and evicts everything else except the host and
// the ids in keep, which retain their last known state.
func (s *Store) applyTraffic(msgs []adsb.TrafficMessage, keep map[string]struct{}, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	present := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if m.ID == adsb.HostID {
			continue
		}
		present[m.ID] = struct{}{}

		a, err := m.Aircraft(now)
		if err != nil {
			log.Printf("⚠️  Skipping traffic entry %s: %v", m.ID, err)
			continue
		}
		if prev, ok := s.tracks[m.ID]; ok {
			if m.Heading == nil {
				a.Heading = prev.Aircraft.Heading
				if h, ok := coordinates.HeadingFromPositions(prev.Aircraft.Position(), a.Position()); ok {
					a.Heading = h
				}
			}
			if m.Speed == nil {
				a.Speed = prev.Aircraft.Speed
			}
			if m.Altitude == nil {
				a.Altitude = prev.Aircraft.Altitude
			}
		}
		a.Heading = coordinates.NormalizeHeading(a.Heading)
		s.upsertLocked(a)
	}

	for id := range s.tracks {
		if id == adsb.HostID {
			continue
		}
		if _, ok := present[id]; ok {
			continue
		}
		if _, ok := keep[id]; ok {
			continue
		}
		delete(s.tracks, id)
	}

	s.publishLocked()
}

// HandleHostFrame decodes a raw host frame and applies it. Malformed frames
// are logged and dropped without touching existing state.
func (s *Store) HandleHostFrame(data []byte) {
	msg, err := adsb.DecodeHostMessage(data)
	if err == nil {
		err = s.ApplyHost(msg, time.Now())
	}
	if err != nil {
		s.noteDropped()
		log.Printf("⚠️  Dropping host frame: %v", err)
	}
}

// HandleTrafficFrame decodes a raw traffic frame and applies it. A frame that
// is not a JSON array is dropped; individual bad entries are skipped and do
// not cause eviction of aircraft already known under their id.
func (s *Store) HandleTrafficFrame(data []byte) {
	valid, rejected, err := adsb.DecodeTrafficMessages(data)
	if err != nil {
		s.noteDropped()
		log.Printf("⚠️  Dropping traffic frame: %v", err)
		return
	}
	for _, r := range rejected {
		log.Printf("⚠️  Skipping traffic entry: %v", r)
	}

	// Aircraft whose entry was rejected keep their last known state
	var keep map[string]struct{}
	for _, r := range rejected {
		if r.ID == "" {
			continue
		}
		if keep == nil {
			keep = make(map[string]struct{})
		}
		keep[r.ID] = struct{}{}
	}
	s.applyTraffic(valid, keep, time.Now())
}

// SetBreadcrumbCount changes the trail length and truncates existing trails.
func (s *Store) SetBreadcrumbCount(n int) {
	if n < 0 {
		n = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.breadcrumbs = n
	for _, t := range s.tracks {
		if len(t.Trail) > n {
			t.Trail = t.Trail[:n]
		}
	}
	s.publishLocked()
}

// CycleBreadcrumbs advances to the next trail length and returns it.
func (s *Store) CycleBreadcrumbs() int {
	next := NextBreadcrumbCount(s.BreadcrumbCount())
	s.SetBreadcrumbCount(next)
	return next
}

// BreadcrumbCount returns the current trail length.
func (s *Store) BreadcrumbCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.breadcrumbs
}

// Get returns one aircraft.
func (s *Store) Get(id string) (adsb.Aircraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tracks[id]
	if !ok {
		return adsb.Aircraft{}, false
	}
	return t.Aircraft, true
}

// Len returns the number of aircraft, host included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// Dropped returns the number of frames discarded as malformed.
func (s *Store) Dropped() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Snapshot returns a consistent copy of the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) upsertLocked(a adsb.Aircraft) {
	t, ok := s.tracks[a.ID]
	if !ok {
		t = &Track{}
		s.tracks[a.ID] = t
	}
	t.Aircraft = a

	if s.breadcrumbs == 0 {
		t.Trail = nil
		return
	}
	// Prepend; the trail never exceeds the configured length
	trail := make([]coordinates.Geographic, 0, s.breadcrumbs)
	trail = append(trail, a.Position())
	trail = append(trail, t.Trail...)
	if len(trail) > s.breadcrumbs {
		trail = trail[:s.breadcrumbs]
	}
	t.Trail = trail
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		BreadcrumbCount: s.breadcrumbs,
		Version:         s.version,
		Traffic:         make([]Track, 0, len(s.tracks)),
	}
	for id, t := range s.tracks {
		c := Track{Aircraft: t.Aircraft, Trail: append([]coordinates.Geographic(nil), t.Trail...)}
		if id == adsb.HostID {
			snap.Host = &c
			continue
		}
		snap.Traffic = append(snap.Traffic, c)
	}
	sort.Slice(snap.Traffic, func(i, j int) bool {
		return snap.Traffic[i].Aircraft.ID < snap.Traffic[j].Aircraft.ID
	})
	return snap
}

func (s *Store) noteDropped() {
	s.mu.Lock()
	s.dropped++
	s.mu.Unlock()
}
