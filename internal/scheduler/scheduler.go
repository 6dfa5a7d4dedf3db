// Package scheduler draws the next prompt word from remaining demand.
package scheduler

import (
	"math/rand/v2"
	"sort"
)

// Source is the random index generator used for shuffling.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// DemandSource reports remaining per-word demand and the preferred word order.
type DemandSource interface {
	Remaining() map[string]int
}

// Scheduler selects words uniformly from the unrolled remaining demand.
type Scheduler struct {
	demand DemandSource
	order  []string
	src    Source
}

// New constructs a scheduler. A nil src falls back to an unseeded generator.
func New(demand DemandSource, order []string, src Source) *Scheduler {
	if src == nil {
		src = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Scheduler{demand: demand, order: order, src: src}
}

// Next returns the next word to prompt, or false when nothing remains.
func (s *Scheduler) Next() (string, bool) {
	pool := Unroll(s.demand.Remaining(), s.order)
	if len(pool) == 0 {
		return "", false
	}
	Shuffle(pool, s.src)
	return pool[0], true
}

// Unroll flattens demand into a multiset with each word repeated demand[w] times.
// Words follow order; words missing from order are appended lexically.
func Unroll(demand map[string]int, order []string) []string {
	seen := make(map[string]struct{}, len(demand))
	names := make([]string, 0, len(demand))
	for _, w := range order {
		if _, ok := demand[w]; !ok {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		names = append(names, w)
	}
	rest := make([]string, 0)
	for w := range demand {
		if _, ok := seen[w]; !ok {
			rest = append(rest, w)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	out := make([]string, 0, len(names))
	for _, w := range names {
		for i := 0; i < demand[w]; i++ {
			out = append(out, w)
		}
	}
	return out
}

// Shuffle permutes items in place with Fisher-Yates.
func Shuffle(items []string, src Source) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
