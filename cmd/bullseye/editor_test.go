package main

import (
	"errors"
	"math"
	"testing"

	"github.com/unklstewy/ads-bsim/pkg/bullseye"
	"github.com/unklstewy/ads-bsim/pkg/config"
)

// TestConvertReference tests switching entry formats.
func TestConvertReference(t *testing.T) {
	ref := bullseye.Reference{
		Format:       bullseye.FormatDecimalMinutes,
		Latitude:     "36 51.1740",
		LatDirection: "N",
		Longitude:    "076 55.2840",
		LonDirection: "W",
	}

	dms, err := convertReference(ref, bullseye.FormatDMS)
	if err != nil {
		t.Fatalf("convertReference failed: %v", err)
	}
	if dms.Format != bullseye.FormatDMS || dms.Latitude != "36 51 10.440" || dms.LonDirection != "W" {
		t.Errorf("Unexpected DMS reference %+v", dms)
	}

	back, err := convertReference(dms, bullseye.FormatDecimalMinutes)
	if err != nil {
		t.Fatalf("convertReference failed: %v", err)
	}
	if back != ref {
		t.Errorf("Expected round trip to %+v, got %+v", ref, back)
	}

	ref.Latitude = "36 75.0"
	if _, err := convertReference(ref, bullseye.FormatDMS); !errors.Is(err, bullseye.ErrInvalidCoordinate) {
		t.Errorf("Expected ErrInvalidCoordinate, got %v", err)
	}
}

// TestInitialReference tests falling back to the host seed.
func TestInitialReference(t *testing.T) {
	host := config.DefaultConfig().Host

	ref, err := initialReference(nil, host)
	if err != nil {
		t.Fatalf("initialReference failed: %v", err)
	}
	p, err := ref.Point()
	if err != nil {
		t.Fatalf("Point failed: %v", err)
	}
	if math.Abs(p.Latitude-host.Latitude) > 1e-5 || math.Abs(p.Longitude-host.Longitude) > 1e-5 {
		t.Errorf("Expected host seed, got %+v", p)
	}

	saved := bullseye.Reference{Format: bullseye.FormatDMS, Latitude: "01 02 03.000", LatDirection: "S",
		Longitude: "004 05 06.000", LonDirection: "E"}
	if got, _ := initialReference(&saved, host); got != saved {
		t.Errorf("Expected saved reference, got %+v", got)
	}
}

// TestIndexOf tests dropdown index lookup.
func TestIndexOf(t *testing.T) {
	if indexOf(latitudes, "S") != 1 || indexOf(latitudes, "X") != 0 {
		t.Error("Unexpected dropdown index")
	}
}

// TestPrintBullseye tests that an unreadable reference is reported.
func TestPrintBullseye(t *testing.T) {
	if err := printBullseye(nil); err != nil {
		t.Errorf("Expected no error for an empty store, got %v", err)
	}

	bad := &bullseye.Reference{Format: bullseye.FormatDecimalMinutes, Latitude: "95 00.0000", Longitude: "076 00.0000", LatDirection: "N", LonDirection: "W"}
	if err := printBullseye(bad); err == nil {
		t.Error("Expected an error for an out of range latitude")
	}
}
