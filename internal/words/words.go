// Package words computes wanted-word quotas, recorded tallies, and remaining demand.
package words

import (
	"fmt"
	"sort"
)

const (
	// DefaultTargetCount is the number of samples wanted for each target word.
	DefaultTargetCount = 5
	// DefaultFillerCount is the number of samples wanted for each filler word.
	DefaultFillerCount = 1
)

// DefaultTargets returns the target vocabulary.
func DefaultTargets() []string {
	return []string{
		"Zero", "One", "Two", "Three", "Four",
		"Five", "Six", "Seven", "Eight", "Nine",
		"On", "Off", "Stop", "Go", "Up",
		"Down", "Left", "Right", "Yes", "No",
	}
}

// DefaultFillers returns the filler vocabulary.
func DefaultFillers() []string {
	return []string{
		"Dog", "Cat", "Bird", "Tree", "Marvin",
		"Sheila", "House", "Bed", "Wow", "Happy",
	}
}

// Entry is one quota row.
type Entry struct {
	Word  string
	Count int
}

// Quota is an ordered word -> wanted-count table. It is immutable once built.
type Quota struct {
	entries []Entry
	index   map[string]int
}

// NewQuota combines target and filler lists into one table.
// Later duplicates overwrite earlier counts but keep the first position.
func NewQuota(targets []string, targetCount int, fillers []string, fillerCount int) (Quota, error) {
	if targetCount <= 0 {
		return Quota{}, fmt.Errorf("target count must be > 0, got %d", targetCount)
	}
	if fillerCount <= 0 {
		return Quota{}, fmt.Errorf("filler count must be > 0, got %d", fillerCount)
	}

	q := Quota{index: make(map[string]int, len(targets)+len(fillers))}
	add := func(word string, count int) {
		if i, ok := q.index[word]; ok {
			q.entries[i].Count = count
			return
		}
		q.index[word] = len(q.entries)
		q.entries = append(q.entries, Entry{Word: word, Count: count})
	}
	for _, w := range targets {
		add(w, targetCount)
	}
	for _, w := range fillers {
		add(w, fillerCount)
	}
	return q, nil
}

// DefaultQuota returns the built-in quota table.
func DefaultQuota() Quota {
	q, err := NewQuota(DefaultTargets(), DefaultTargetCount, DefaultFillers(), DefaultFillerCount)
	if err != nil {
		panic(err)
	}
	return q
}

// QuotaFromMap builds a quota from a plain map, ordering words lexically.
func QuotaFromMap(m map[string]int) Quota {
	names := make([]string, 0, len(m))
	for w := range m {
		names = append(names, w)
	}
	sort.Strings(names)

	q := Quota{index: make(map[string]int, len(m))}
	for _, w := range names {
		if m[w] <= 0 {
			continue
		}
		q.index[w] = len(q.entries)
		q.entries = append(q.entries, Entry{Word: w, Count: m[w]})
	}
	return q
}

// Entries returns a copy of the table in quota order.
func (q Quota) Entries() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Count returns the wanted count for word, or 0 when the word is not wanted.
func (q Quota) Count(word string) int {
	i, ok := q.index[word]
	if !ok {
		return 0
	}
	return q.entries[i].Count
}

// Words returns wanted words in quota order.
func (q Quota) Words() []string {
	out := make([]string, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.Word
	}
	return out
}

// Total returns the sum of all wanted counts.
func (q Quota) Total() int {
	total := 0
	for _, e := range q.entries {
		total += e.Count
	}
	return total
}

// Tally counts occurrences of each label.
func Tally(labels []string) map[string]int {
	counts := make(map[string]int, len(labels))
	for _, label := range labels {
		counts[label]++
	}
	return counts
}

// Remaining returns max(quota-tally, 0) per wanted word, omitting satisfied words.
// Tally entries for words outside the quota are ignored.
func Remaining(q Quota, tally map[string]int) map[string]int {
	out := make(map[string]int, len(q.entries))
	for _, e := range q.entries {
		if left := e.Count - tally[e.Word]; left > 0 {
			out[e.Word] = left
		}
	}
	return out
}

// Sum returns the total count in a demand map.
func Sum(demand map[string]int) int {
	total := 0
	for _, n := range demand {
		total += n
	}
	return total
}

// Progress renders the progress counter. The numerator is one ahead of the
// completed count because it names the word about to be recorded.
func Progress(total int, remaining int) string {
	return fmt.Sprintf("%d/%d", total+1-remaining, total)
}

// LabelSource reports the labels of the clips currently held.
type LabelSource interface {
	Labels() []string
}

// LabelFunc adapts a function to LabelSource.
type LabelFunc func() []string

func (f LabelFunc) Labels() []string {
	return f()
}

// Ledger derives remaining demand from a quota and the live clip labels.
type Ledger struct {
	quota  Quota
	labels LabelSource
}

// NewLedger binds a quota to a label source.
func NewLedger(q Quota, labels LabelSource) *Ledger {
	if labels == nil {
		labels = LabelFunc(func() []string { return nil })
	}
	return &Ledger{quota: q, labels: labels}
}

// Quota returns the bound quota table.
func (l *Ledger) Quota() Quota {
	return l.quota
}

// Remaining recomputes remaining demand from the current labels.
func (l *Ledger) Remaining() map[string]int {
	return Remaining(l.quota, Tally(l.labels.Labels()))
}

// Total returns the total wanted count.
func (l *Ledger) Total() int {
	return l.quota.Total()
}

// RemainingCount returns the number of samples still needed.
func (l *Ledger) RemainingCount() int {
	return Sum(l.Remaining())
}

// Progress returns the progress counter for the current labels.
func (l *Ledger) Progress() string {
	return Progress(l.Total(), l.RemainingCount())
}
