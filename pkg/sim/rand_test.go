package sim

import "testing"

func TestRandDeterministic(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("Same seed produced different sequences")
		}
	}

	c := NewRand(43)
	if NewRand(42).Float64() == c.Float64() && NewRand(42).Intn(1000) == c.Intn(1000) {
		t.Error("Different seeds should diverge")
	}
}

func TestRandRanges(t *testing.T) {
	r := NewRand(1)
	for i := 0; i < 10000; i++ {
		if f := r.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64() = %f outside [0, 1)", f)
		}
		if n := r.Intn(360); n < 0 || n >= 360 {
			t.Fatalf("Intn(360) = %d outside [0, 360)", n)
		}
	}
}
