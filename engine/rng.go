package engine

import "math/rand"

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position counts draws from the underlying source, enabling save/restore.
type RNG struct {
	seed int64
	src  *countingSource
	rand *rand.Rand
}

// countingSource counts every value drawn from the seeded source. Intn may
// draw more than once per call, so counting calls is not enough to replay it.
type countingSource struct {
	src rand.Source64
	n   int64
}

func (c *countingSource) Int63() int64 {
	c.n++
	return c.src.Int63()
}

func (c *countingSource) Uint64() uint64 {
	c.n++
	return c.src.Uint64()
}

func (c *countingSource) Seed(seed int64) {
	c.src.Seed(seed)
	c.n = 0
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	src := &countingSource{src: rand.NewSource(seed).(rand.Source64)}
	return &RNG{
		seed: seed,
		src:  src,
		rand: rand.New(src),
	}
}

// Intn returns a random integer in [0, n). It returns 0 when n <= 0.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.rand.Intn(n)
}

// Seed returns the seed the RNG was created from.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of source draws made since creation.
func (r *RNG) Position() int64 {
	return r.src.n
}

// Reset reseeds r in place and advances it to position. Holders of r
// draw from the restored sequence afterwards.
func (r *RNG) Reset(seed int64, position int64) {
	r.seed = seed
	r.src.Seed(seed)
	r.rand = rand.New(r.src)
	for i := int64(0); i < position; i++ {
		r.src.Int63()
	}
}

// RestoreRNG creates an RNG and advances it to the given position.
// This reproduces the exact RNG state for save/load.
func RestoreRNG(seed int64, position int64) *RNG {
	rng := NewRNG(seed)
	rng.Reset(seed, position)
	return rng
}
