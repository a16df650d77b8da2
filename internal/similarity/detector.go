// Package similarity detects near-duplicate planning states so the planner
// can prune dominated branches. States are fingerprinted over their
// normalized action history and observation; two states are similar when the
// word-overlap similarity of their fingerprints reaches a configurable
// threshold.
package similarity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultThreshold is the similarity at or above which two states are
// treated as near-duplicates.
const DefaultThreshold = 0.8

// Detector fingerprints states and measures similarity between fingerprints.
// A Detector is stateless and safe for concurrent use; per-run seen-state
// tracking lives in Index.
type Detector struct {
	threshold float64
}

// NewDetector creates a detector with the given similarity threshold.
// Thresholds outside (0, 1] fall back to DefaultThreshold.
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold}
}

// Threshold returns the configured similarity threshold.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Fingerprint derives the dedup signature of a state from its ordered
// action history and latest observation. The signature is a stable hash of
// the normalized text, suitable as a cache key; Normalize retains the text
// form used for similarity comparison.
func (d *Detector) Fingerprint(history []string, observation string) string {
	normalized := Normalize(history, observation)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Normalize renders the comparable text form of a state: lowercased history
// in order, then the lowercased observation with whitespace collapsed.
func Normalize(history []string, observation string) string {
	var b strings.Builder
	for i, action := range history {
		if i > 0 {
			b.WriteByte('>')
		}
		b.WriteString(strings.ToLower(strings.TrimSpace(action)))
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(strings.Fields(strings.ToLower(observation)), " "))
	return b.String()
}

// Similar reports whether two normalized state texts meet the threshold.
// Uses multiple heuristics to detect similarity:
//  1. Exact match
//  2. One contains the other (substring match)
//  3. High word overlap (Jaccard similarity)
func (d *Detector) Similar(a, b string) bool {
	return d.Similarity(a, b) >= d.threshold
}

// Similarity measures how alike two normalized state texts are, in [0, 1].
func (d *Detector) Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	wordsA := strings.FieldsFunc(a, isSeparator)
	wordsB := strings.FieldsFunc(b, isSeparator)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		// Degenerate forms like the root state's "|" carry no tokens and
		// only ever match themselves.
		return 0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 1
	}

	return jaccardSimilarity(wordsA, wordsB)
}

// isSeparator splits normalized text into comparable tokens.
func isSeparator(r rune) bool {
	return r == ' ' || r == '>' || r == '|'
}

// jaccardSimilarity calculates the Jaccard similarity between two word sets.
// Returns a value between 0 and 1, where 1 means identical sets.
func jaccardSimilarity(wordsA, wordsB []string) float64 {
	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		setA[w] = true
	}
	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		setB[w] = true
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
