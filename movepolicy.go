// Move policy: deciding which generation a survivor is copied into.
// Grounded on original_source/xo-alloc2/include/xo/alloc2/DCollector.hpp,
// whose comments describe gen(age) = age / survive_threshold, clipped
// to the highest configured generation — see DESIGN.md's Open Question
// decision on promotion target (a copy lands in the to-space of
// gen(new age) when that generation is being collected, and in that
// generation's live from-space otherwise, since only the collected
// generations' from-spaces are discarded this cycle).
package xogc

// targetGeneration computes gen(age) = age/survive, clipped to the
// highest valid generation index (generations-1). This is a pure
// function of age alone — an object's generation membership never
// depends on which arena it currently occupies.
func targetGeneration(age uint32, survive uint32, maxGen int) int {
	if survive == 0 {
		survive = 1
	}
	g := int(age / survive)
	if g > maxGen {
		g = maxGen
	}
	return g
}

// shouldMove reports whether an object at the given age moves during
// a collection of generations [0, upto): per spec.md §4.5, it moves
// iff gen(age) < upto. Tenured objects (gen(age) >= upto) stay put.
func shouldMove(age uint32, survive uint32, maxGen int, upto int) bool {
	return targetGeneration(age, survive, maxGen) < upto
}
