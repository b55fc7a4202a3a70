package engine

import (
	"fmt"
	"math/rand/v2"
)

// Deal returns a shuffled token key set that fills a board of the given tier,
// two tokens per key. A nil rng uses the global source.
func Deal(tier Tier, rng *rand.Rand) []string {
	size := tier.Size()
	keys := make([]string, 0, size)
	for i := 0; i < size/2; i++ {
		key := fmt.Sprintf("pair-%02d", i)
		keys = append(keys, key, key)
	}

	swap := func(i, j int) { keys[i], keys[j] = keys[j], keys[i] }
	if rng != nil {
		rng.Shuffle(len(keys), swap)
	} else {
		rand.Shuffle(len(keys), swap)
	}
	return keys
}
