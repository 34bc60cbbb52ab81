// Package normalize rewrites free-text biological terms into the forms the
// ontology recommender matches best.
//
// Every term yields four lookup variants, tried in priority order:
//
//	Lower          lowercased, hyphens to spaces, parentheses and qualifiers removed
//	NoPos          Lower with anatomical position words removed
//	NoPosSingular  NoPos singularized
//	Singular       Lower singularized
package normalize

import (
	"regexp"
	"strings"

	"github.com/gedex/inflector"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var parenthesized = regexp.MustCompile(`\(.*?\)`)

// Replacement is a literal substring rewrite. An empty To removes From.
type Replacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Vocabulary holds the ordered rewrite lists and the ontologies they apply to.
type Vocabulary struct {
	Ontologies []string      `yaml:"ontologies"`
	Qualifiers []Replacement `yaml:"qualifiers"`
	Positions  []Replacement `yaml:"positions"`
}

func removals(words ...string) []Replacement {
	out := make([]Replacement, len(words))
	for i, w := range words {
		out[i] = Replacement{From: w}
	}
	return out
}

// DefaultVocabulary returns the GeneLab cleanup rules for UBERON.
// "female" is listed before "male" so it is not left behind as "fe".
func DefaultVocabulary() Vocabulary {
	qualifiers := removals("human", "murine", "female", "male", "carcass", "tissue")
	qualifiers = append(qualifiers,
		Replacement{From: "mandibular bone", To: "mandible"},
		Replacement{From: "left lobe of the liver", To: "liver left lateral lobe"},
	)

	positions := removals("left", "right", "both sides", "medial", "distal", "peripheral",
		"dorsal", "lateral", "4th", "femoral", "ventricular", "primary", "partial", "whole")
	positions = append(positions,
		Replacement{From: "lobe of the", To: "lobe of"},
		Replacement{From: "3d"}, // 3d cell cultures
	)

	return Vocabulary{
		Ontologies: []string{"UBERON"},
		Qualifiers: qualifiers,
		Positions:  positions,
	}
}

// Variants are the four lookup forms of one term.
type Variants struct {
	Lower         string
	NoPos         string
	NoPosSingular string
	Singular      string
}

// All returns the variants in lookup priority order.
func (v Variants) All() [4]string {
	return [4]string{v.Lower, v.NoPos, v.NoPosSingular, v.Singular}
}

// Normalizer applies a Vocabulary.
type Normalizer struct {
	vocab      Vocabulary
	ontologies map[string]struct{}
}

// New creates a normalizer. Rewrite entries are lowercased so they line up
// with the lowercased input.
func New(v Vocabulary) *Normalizer {
	lc := cases.Lower(language.Und)
	n := &Normalizer{
		ontologies: make(map[string]struct{}, len(v.Ontologies)),
	}
	for _, o := range v.Ontologies {
		n.ontologies[strings.ToUpper(strings.TrimSpace(o))] = struct{}{}
	}
	n.vocab.Ontologies = append([]string(nil), v.Ontologies...)
	n.vocab.Qualifiers = lowerAll(lc, v.Qualifiers)
	n.vocab.Positions = lowerAll(lc, v.Positions)
	return n
}

func lowerAll(lc cases.Caser, rs []Replacement) []Replacement {
	out := make([]Replacement, 0, len(rs))
	for _, r := range rs {
		if r.From == "" {
			continue
		}
		out = append(out, Replacement{From: lc.String(r.From), To: lc.String(r.To)})
	}
	return out
}

// Vocabulary returns the (lowercased) rules in use.
func (n *Normalizer) Vocabulary() Vocabulary {
	return n.vocab
}

func (n *Normalizer) applies(ontology string) bool {
	_, ok := n.ontologies[strings.ToUpper(strings.TrimSpace(ontology))]
	return ok
}

// Lower is the first-stage form of a raw term.
func (n *Normalizer) Lower(term, ontology string) string {
	s := cases.Lower(language.Und).String(term)
	s = strings.ReplaceAll(s, "-", " ")
	s = parenthesized.ReplaceAllString(s, "")
	if n.applies(ontology) {
		s = replace(s, n.vocab.Qualifiers)
	}
	return squash(s)
}

// NoPosition strips positional qualifiers from a first-stage form.
// For ontologies without rules it returns lower unchanged.
func (n *Normalizer) NoPosition(lower, ontology string) string {
	if !n.applies(ontology) {
		return lower
	}
	return squash(replace(lower, n.vocab.Positions))
}

// Singular singularizes the trailing word of s.
func Singular(s string) string {
	if s == "" {
		return ""
	}
	return inflector.Singularize(s)
}

// Variants derives all four lookup forms of term.
func (n *Normalizer) Variants(term, ontology string) Variants {
	lower := n.Lower(term, ontology)
	nopos := n.NoPosition(lower, ontology)
	return Variants{
		Lower:         lower,
		NoPos:         nopos,
		NoPosSingular: Singular(nopos),
		Singular:      Singular(lower),
	}
}

// Normalize returns the first-stage form of each term, same length as terms.
func (n *Normalizer) Normalize(terms []string, ontology string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = n.Lower(t, ontology)
	}
	return out
}

func replace(s string, rules []Replacement) string {
	for _, r := range rules {
		s = strings.ReplaceAll(s, r.From, r.To)
	}
	return s
}

// squash collapses whitespace runs and trims both ends.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
