package sim

import (
	"github.com/MichaelTJones/pcg"
)

// Rand is a seedable PCG32 random source. It is not safe for concurrent
// use; simulators only draw from it while holding their lock.
type Rand struct {
	r *pcg.PCG32
}

// NewRand returns a source seeded with s.
func NewRand(s int64) *Rand {
	r := &Rand{r: pcg.NewPCG32()}
	r.Seed(s)
	return r
}

func (r *Rand) Seed(s int64) {
	r.r.Seed(uint64(s), 0xda3e39cb94b95bdb)
}

// Intn returns a value in [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	return int(r.r.Bounded(uint32(n)))
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.r.Random()) / (1 << 32)
}
