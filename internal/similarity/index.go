package similarity

// entry is one admitted state in the run-local index.
type entry struct {
	fingerprint string
	normalized  string
	cost        int
}

// Index is the run-local record of already-seen states, used to discard
// dominated candidates before they reach the frontier: a candidate similar
// to an admitted state with equal-or-lower g is dropped. Lookup is a linear
// scan, which is fine at per-run node budgets in the tens to low hundreds;
// larger deployments would swap in a nearest-neighbor index behind the same
// methods. An Index belongs to a single run and is not locked.
type Index struct {
	detector *Detector
	entries  []entry
}

// NewIndex creates an empty index backed by the given detector.
func NewIndex(detector *Detector) *Index {
	return &Index{detector: detector}
}

// Dominated reports whether a candidate state with the given normalized text
// and cost g is dominated by an already-admitted state: one whose similarity
// meets the threshold and whose g is less than or equal to the candidate's.
func (idx *Index) Dominated(normalized string, g int) bool {
	for _, e := range idx.entries {
		if e.cost <= g && idx.detector.Similar(e.normalized, normalized) {
			return true
		}
	}
	return false
}

// Admit records a state in the index. Callers admit only candidates that
// were not dominated.
func (idx *Index) Admit(fingerprint, normalized string, g int) {
	idx.entries = append(idx.entries, entry{
		fingerprint: fingerprint,
		normalized:  normalized,
		cost:        g,
	})
}

// Len returns the number of admitted states.
func (idx *Index) Len() int {
	return len(idx.entries)
}
