package pipeline

import (
	"math/rand"
	"sort"
)

// Sample draws floor(pct*rows/100) row positions without replacement and returns
// them in ascending order. ok is false when pct is outside (0, 100], in which case
// no sampling should happen.
func Sample(rows int, pct float64, seed int64) (positions []int, ok bool) {
	if pct <= 0 || pct > 100 || rows <= 0 {
		return nil, false
	}
	n := int(pct * float64(rows) / 100)
	rng := rand.New(rand.NewSource(seed))
	positions = rng.Perm(rows)[:n]
	sort.Ints(positions)
	return positions, true
}
