package dictionary

import (
	"math/rand/v2"
	"time"
)

// Unsorted drains src and replays it in a random order.
func Unsorted(src TermSource) (TermSource, error) {
	seed := uint64(time.Now().UnixNano())
	return UnsortedWithRand(src, rand.New(rand.NewPCG(seed, seed>>32|1)))
}

// UnsortedWithRand is Unsorted with a caller supplied generator, for reproducible orders.
func UnsortedWithRand(src TermSource, rng *rand.Rand) (TermSource, error) {
	entries, err := Drain(src)
	if err != nil {
		return nil, err
	}
	rng.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
	return NewSliceSource(entries, false), nil
}
