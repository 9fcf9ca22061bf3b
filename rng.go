package taskloop

import "math/rand/v2"

// RNG is the deterministic, seedable stream an Executor owns and lends
// to task bodies through ExecutorHandle.RNG. The generator's algorithm
// is an implementation detail; only this contract is load-bearing:
// given the same seed and the same sequence of calls, two RNG values
// produce the same sequence.
type RNG interface {
	// Uint64 returns the next pseudo-random 64-bit value.
	Uint64() uint64
	// Int64N returns a pseudo-random value in [0, n). It panics if n <= 0.
	Int64N(n int64) int64
	// Float64 returns a pseudo-random value in [0.0, 1.0).
	Float64() float64
}

// pcgRNG is the default RNG implementation, a thin wrapper over
// math/rand/v2's PCG source seeded from a single 64-bit value.
type pcgRNG struct {
	r *rand.Rand
}

// newPCGRNG builds a deterministic RNG from a 64-bit seed. The same
// seed always produces the same PCG stream.
func newPCGRNG(seed uint64) *pcgRNG {
	return &pcgRNG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *pcgRNG) Uint64() uint64 {
	return p.r.Uint64()
}

func (p *pcgRNG) Int64N(n int64) int64 {
	return p.r.Int64N(n)
}

func (p *pcgRNG) Float64() float64 {
	return p.r.Float64()
}
