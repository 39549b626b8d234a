package responder

import (
	"math/rand/v2"
	"sync"
)

// Random is the source of the simulated scores and report counts.
// *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// NewSeededRandom returns a goroutine-safe deterministic source.
func NewSeededRandom(seed uint64) Random {
	return &lockedRandom{r: rand.New(rand.NewPCG(seed, seed^0x5afe))}
}

type lockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRandom) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// between draws uniformly from [lo, hi].
func between(r Random, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}
