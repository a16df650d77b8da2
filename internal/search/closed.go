package search

// ClosedSet records the fingerprints of already-expanded states together
// with the best g seen for each. It backs lazy deletion: a popped node whose
// fingerprint is already closed with an equal-or-lower g is stale and is
// discarded without re-expansion. At most one closed entry exists per
// fingerprint in a run.
type ClosedSet struct {
	best map[string]int
}

// NewClosedSet creates an empty closed set.
func NewClosedSet() *ClosedSet {
	return &ClosedSet{best: make(map[string]int)}
}

// IsStale reports whether a node with the given fingerprint and g is
// superseded by an already-closed entry with equal-or-lower g.
func (c *ClosedSet) IsStale(fingerprint string, g int) bool {
	closed, ok := c.best[fingerprint]
	return ok && closed <= g
}

// Close records the fingerprint as expanded with cost g. If the fingerprint
// was already closed, the lower g wins.
func (c *ClosedSet) Close(fingerprint string, g int) {
	if existing, ok := c.best[fingerprint]; ok && existing <= g {
		return
	}
	c.best[fingerprint] = g
}

// Best returns the best closed g for the fingerprint, if any.
func (c *ClosedSet) Best(fingerprint string) (int, bool) {
	g, ok := c.best[fingerprint]
	return g, ok
}

// Len returns the number of distinct closed fingerprints.
func (c *ClosedSet) Len() int {
	return len(c.best)
}
