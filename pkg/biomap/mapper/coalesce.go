package mapper

import "github.com/cognicore/biomap/pkg/biomap"

// Candidate is one pass's answer for a row. OK is false when the pass had no match.
type Candidate struct {
	Concept biomap.Concept
	OK      bool
}

// Coalesce returns the first candidate that has a match, or the zero Concept.
func Coalesce(candidates ...Candidate) biomap.Concept {
	for _, c := range candidates {
		if c.OK {
			return c.Concept
		}
	}
	return biomap.Concept{}
}

// Result is the coalesced mapping of one input row.
type Result struct {
	Term    string
	Concept biomap.Concept
	Pass    Pass // pass that produced the match; meaningless when unmapped
}

// Mapped reports whether any pass matched.
func (r Result) Mapped() bool {
	return r.Concept.URI != ""
}

// ID is the compact identifier of the matched concept, "" when unmapped.
func (r Result) ID() string {
	return biomap.CURIE(r.Concept.URI)
}
