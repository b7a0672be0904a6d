package store

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/unklstewy/ads-bsim/pkg/adsb"
)

func f(v float64) *float64 { return &v }

func trafficMsg(id string, lat, lon float64) adsb.TrafficMessage {
	return adsb.TrafficMessage{ID: id, Latitude: f(lat), Longitude: f(lon), Altitude: f(10000), Speed: f(300), Heading: f(90)}
}

func hostMsg(lat, lon float64, ts time.Time) adsb.HostMessage {
	return adsb.HostMessage{Latitude: f(lat), Longitude: f(lon), Timestamp: &ts}
}

// TestApplyTraffic tests upsert and eviction.
func TestApplyTraffic(t *testing.T) {
	now := time.Now()

	t.Run("Upsert by id", func(t *testing.T) {
		s := New(5)
		s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", 1, 1), trafficMsg("AC2", 2, 2)}, now)
		s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", 1.5, 1), trafficMsg("AC2", 2, 2)}, now)

		if s.Len() != 2 {
			t.Fatalf("Expected 2 aircraft, got %d", s.Len())
		}
		a, ok := s.Get("AC1")
		if !ok || a.Latitude != 1.5 {
			t.Errorf("Expected AC1 at 1.5, got %+v", a)
		}
	})

	t.Run("Evicts aircraft absent from the snapshot", func(t *testing.T) {
		s := New(5)
		s.ApplyHost(hostMsg(36, -76, now), now)
		s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", 1, 1), trafficMsg("AC2", 2, 2), trafficMsg("AC3", 3, 3)}, now)
		s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC2", 2, 2)}, now)

		if _, ok := s.Get("AC1"); ok {
			t.Error("AC1 should have been evicted")
		}
		if _, ok := s.Get("AC3"); ok {
			t.Error("AC3 should have been evicted")
		}
		if _, ok := s.Get("AC2"); !ok {
			t.Error("AC2 should remain")
		}
		if _, ok := s.Get(adsb.HostID); !ok {
			t.Error("Host must never be evicted by traffic")
		}
	})

	t.Run("Empty snapshot keeps the host", func(t *testing.T) {
		s := New(5)
		s.ApplyHost(hostMsg(36, -76, now), now)
		s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", 1, 1)}, now)
		s.ApplyTraffic(nil, now)

		if s.Len() != 1 {
			t.Errorf("Expected only the host, got %d aircraft", s.Len())
		}
	})

	t.Run("Traffic cannot overwrite the host", func(t *testing.T) {
		s := New(5)
		s.ApplyHost(hostMsg(36, -76, now), now)
		s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg(adsb.HostID, 1, 1)}, now)

		h, _ := s.Get(adsb.HostID)
		if h.Latitude != 36 {
			t.Errorf("Host was overwritten by traffic: %+v", h)
		}
	})

	t.Run("Missing heading is derived", func(t *testing.T) {
		s := New(5)
		s.ApplyTraffic([]adsb.TrafficMessage{{ID: "AC1", Latitude: f(10), Longitude: f(10)}}, now)
		s.ApplyTraffic([]adsb.TrafficMessage{{ID: "AC1", Latitude: f(10.1), Longitude: f(10)}}, now)

		a, _ := s.Get("AC1")
		if math.Abs(a.Heading) > 0.01 {
			t.Errorf("Expected derived northbound heading, got %f", a.Heading)
		}
	})

	t.Run("Entry without position keeps last state", func(t *testing.T) {
		s := New(5)
		s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", 1, 1)}, now)
		s.ApplyTraffic([]adsb.TrafficMessage{{ID: "AC1", Latitude: f(2)}}, now)

		a, ok := s.Get("AC1")
		if !ok || a.Latitude != 1 {
			t.Errorf("Expected AC1 kept at latitude 1, got %+v (present %v)", a, ok)
		}
	})
}

// TestApplyHostRejectsMissingPosition tests that a hand-built host report
// without coordinates is refused.
func TestApplyHostRejectsMissingPosition(t *testing.T) {
	now := time.Now()
	s := New(5)
	if err := s.ApplyHost(hostMsg(36, -76, now), now); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := s.ApplyHost(adsb.HostMessage{Latitude: f(37)}, now); err == nil {
		t.Error("Expected an error for a host report without longitude")
	}

	h, _ := s.Get(adsb.HostID)
	if h.Latitude != 36 {
		t.Errorf("Expected host to stay at latitude 36, got %f", h.Latitude)
	}
}

// TestBreadcrumbs tests trail prepending and bounds.
func TestBreadcrumbs(t *testing.T) {
	now := time.Now()

	t.Run("Most recent first, bounded", func(t *testing.T) {
		s := New(5)
		for i := 0; i < 12; i++ {
			s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", float64(i), 0)}, now)
		}

		track, ok := s.Snapshot().Find("AC1")
		if !ok {
			t.Fatal("AC1 missing")
		}
		if len(track.Trail) != 5 {
			t.Fatalf("Expected 5 breadcrumbs, got %d", len(track.Trail))
		}
		for i, p := range track.Trail {
			if want := float64(11 - i); p.Latitude != want {
				t.Errorf("Breadcrumb %d latitude = %f, want %f", i, p.Latitude, want)
			}
		}
	})

	t.Run("Zero disables trails", func(t *testing.T) {
		s := New(0)
		s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", 1, 1)}, now)
		s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", 2, 1)}, now)

		track, _ := s.Snapshot().Find("AC1")
		if len(track.Trail) != 0 {
			t.Errorf("Expected no breadcrumbs, got %d", len(track.Trail))
		}
	})

	t.Run("Lowering the count truncates", func(t *testing.T) {
		s := New(20)
		for i := 0; i < 20; i++ {
			s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", float64(i), 0)}, now)
		}
		s.SetBreadcrumbCount(5)

		track, _ := s.Snapshot().Find("AC1")
		if len(track.Trail) != 5 || track.Trail[0].Latitude != 19 {
			t.Errorf("Expected newest 5 breadcrumbs, got %v", track.Trail)
		}
	})

	t.Run("Cycle", func(t *testing.T) {
		s := New(0)
		want := []int{5, 10, 20, 0, 5}
		for _, w := range want {
			if got := s.CycleBreadcrumbs(); got != w {
				t.Errorf("CycleBreadcrumbs() = %d, want %d", got, w)
			}
		}
		if NextBreadcrumbCount(7) != 0 {
			t.Error("Unknown count should restart the cycle")
		}
	})

	t.Run("Host trail", func(t *testing.T) {
		s := New(10)
		for i := 0; i < 3; i++ {
			s.ApplyHost(hostMsg(36+float64(i)*0.01, -76, now.Add(time.Duration(i)*time.Second)), now)
		}
		snap := s.Snapshot()
		if snap.Host == nil || len(snap.Host.Trail) != 3 {
			t.Fatalf("Expected host trail of 3, got %+v", snap.Host)
		}
	})
}

// TestApplyHostDerivation tests heading and speed derivation from fixes.
func TestApplyHostDerivation(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(5)

	s.ApplyHost(hostMsg(36.8529, -76.9214, t0), t0)
	h, _ := s.Get(adsb.HostID)
	if h.Heading != 0 || h.Speed != 0 {
		t.Errorf("First fix has nothing to derive from, got %+v", h)
	}

	// One arc-minute north in one minute: 60 kt due north
	s.ApplyHost(hostMsg(36.8529+1.0/60.0, -76.9214, t0.Add(time.Minute)), t0)
	h, _ = s.Get(adsb.HostID)
	if math.Abs(h.Heading) > 0.01 && math.Abs(h.Heading-360) > 0.01 {
		t.Errorf("Expected derived heading ~0, got %f", h.Heading)
	}
	if math.Abs(h.Speed-60.04) > 0.1 {
		t.Errorf("Expected derived speed ~60 kt, got %f", h.Speed)
	}

	// Reported values win over derivation
	msg := hostMsg(37, -76.9214, t0.Add(2*time.Minute))
	msg.Heading = f(270)
	msg.Speed = f(300)
	s.ApplyHost(msg, t0)
	h, _ = s.Get(adsb.HostID)
	if h.Heading != 270 || h.Speed != 300 {
		t.Errorf("Expected reported heading/speed, got %+v", h)
	}

	// Same position keeps the last heading
	msg = hostMsg(37, -76.9214, t0.Add(3*time.Minute))
	s.ApplyHost(msg, t0)
	h, _ = s.Get(adsb.HostID)
	if h.Heading != 270 {
		t.Errorf("Expected heading retained for a stationary fix, got %f", h.Heading)
	}
}

// TestHandleFrames tests malformed frame handling.
func TestHandleFrames(t *testing.T) {
	s := New(5)
	s.HandleTrafficFrame([]byte(`[{"id":"AC1","latitude":1,"longitude":1},{"id":"AC2","latitude":2,"longitude":2}]`))
	if s.Len() != 2 {
		t.Fatalf("Expected 2 aircraft, got %d", s.Len())
	}

	t.Run("Garbage is dropped", func(t *testing.T) {
		s.HandleTrafficFrame([]byte(`not json`))
		s.HandleHostFrame([]byte(`{"latitude":"north"}`))
		if s.Len() != 2 {
			t.Errorf("State changed after malformed frames: %d aircraft", s.Len())
		}
		if s.Dropped() != 2 {
			t.Errorf("Expected 2 dropped frames, got %d", s.Dropped())
		}
	})

	t.Run("Bad entry keeps last known state", func(t *testing.T) {
		s.HandleTrafficFrame([]byte(`[{"id":"AC1","latitude":1.5,"longitude":1},{"id":"AC2","latitude":2}]`))

		a1, _ := s.Get("AC1")
		if a1.Latitude != 1.5 {
			t.Errorf("AC1 should update, got %f", a1.Latitude)
		}
		a2, ok := s.Get("AC2")
		if !ok {
			t.Fatal("AC2 should not be evicted because of a bad entry")
		}
		if a2.Latitude != 2 {
			t.Errorf("AC2 should keep its last state, got %f", a2.Latitude)
		}
	})

	t.Run("Host frame", func(t *testing.T) {
		s.HandleHostFrame([]byte(`{"latitude":36.8529,"longitude":-76.9214,"altitude":25000,"speed":300,"heading":270,"timestamp":"2026-01-01T00:00:00Z"}`))
		h, ok := s.Get(adsb.HostID)
		if !ok || h.Heading != 270 || h.Altitude != 25000 {
			t.Errorf("Unexpected host %+v", h)
		}
	})
}

// TestSubscribe tests current-value and latest-wins delivery.
func TestSubscribe(t *testing.T) {
	now := time.Now()
	s := New(5)
	s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", 1, 1)}, now)

	sub := s.Subscribe()
	defer sub.Unsubscribe()

	select {
	case snap := <-sub.C:
		if len(snap.Traffic) != 1 {
			t.Errorf("Expected current snapshot with 1 aircraft, got %d", len(snap.Traffic))
		}
	default:
		t.Fatal("Expected the current snapshot immediately")
	}

	// Publish several updates without reading
	for i := 0; i < 10; i++ {
		s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg(fmt.Sprintf("AC%d", i), 1, 1)}, now)
	}

	snap := <-sub.C
	if _, ok := snap.Find("AC9"); !ok {
		t.Error("Expected the latest snapshot after a burst")
	}
	select {
	case <-sub.C:
		t.Error("Expected only one pending snapshot")
	default:
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	if _, open := <-sub.C; open {
		t.Error("Expected closed channel after unsubscribe")
	}

	// Publishing after unsubscribe must not panic
	s.ApplyTraffic(nil, now)
}

// TestSnapshotIsolation verifies snapshots are copies.
func TestSnapshotIsolation(t *testing.T) {
	s := New(5)
	s.ApplyTraffic([]adsb.TrafficMessage{trafficMsg("AC1", 1, 1)}, time.Now())

	snap := s.Snapshot()
	snap.Traffic[0].Trail[0].Latitude = 99

	again := s.Snapshot()
	if again.Traffic[0].Trail[0].Latitude != 1 {
		t.Error("Mutating a snapshot changed the store")
	}
	if again.Version == 0 {
		t.Error("Expected the version to advance on updates")
	}
}
