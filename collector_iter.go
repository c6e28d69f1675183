// CollectorIterator walks every live allocation across all
// generations, in generation order (youngest first), skipping
// generations with no live allocations. "Live" here means whichever
// arena currently holds the active role for that generation — the
// role that was most recently a to-space and is now serving as
// from-space after the last collection's swap.
package xogc

// CollectorIterator composes one ArenaIterator per generation into a
// single sequential walk.
type CollectorIterator struct {
	collector *Collector
	genIdx    int
	inner     *ArenaIterator
}

// Begin returns an iterator positioned at the first live allocation in
// the first non-empty generation, or an exhausted iterator if the
// collector holds nothing.
func (c *Collector) Begin() *CollectorIterator {
	it := &CollectorIterator{collector: c, genIdx: 0}
	it.inner = c.gens[0].from.Begin()
	it.skipEmpty()
	return it
}

func (it *CollectorIterator) skipEmpty() {
	for it.genIdx < len(it.collector.gens) {
		if it.inner.Valid() {
			end := it.collector.gens[it.genIdx].from.End()
			if !it.inner.Equal(end) {
				return
			}
		}
		it.genIdx++
		if it.genIdx < len(it.collector.gens) {
			it.inner = it.collector.gens[it.genIdx].from.Begin()
		}
	}
}

// Valid reports whether the iterator currently references a live
// allocation.
func (it *CollectorIterator) Valid() bool {
	return it.genIdx < len(it.collector.gens) && it.inner.Valid()
}

// Deref returns the AllocInfo for the current position.
func (it *CollectorIterator) Deref() (AllocInfo, bool) {
	if !it.Valid() {
		return AllocInfo{}, false
	}
	return it.inner.Deref()
}

// Generation returns the generation index the iterator is currently
// positioned in.
func (it *CollectorIterator) Generation() int { return it.genIdx }

// Next advances to the next live allocation, moving to the next
// non-empty generation when the current one is exhausted. Returns
// false once every generation has been walked.
func (it *CollectorIterator) Next() bool {
	if !it.Valid() {
		return false
	}
	if !it.inner.Next() {
		return false
	}
	end := it.collector.gens[it.genIdx].from.End()
	if it.inner.Equal(end) {
		it.genIdx++
		if it.genIdx < len(it.collector.gens) {
			it.inner = it.collector.gens[it.genIdx].from.Begin()
		}
		it.skipEmpty()
	}
	return it.Valid()
}
