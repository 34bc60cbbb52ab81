// Package biomap holds the types shared by the ontology mapping and the
// metadata export pipelines.
package biomap

import "strings"

// OBOPrefix is the namespace of OBO Foundry class URIs.
const OBOPrefix = "http://purl.obolibrary.org/obo/"

// Concept is an ontology class matched for a term.
type Concept struct {
	URI  string
	Name string
}

// IsZero reports whether c carries no match.
func (c Concept) IsZero() bool {
	return c.URI == "" && c.Name == ""
}

// CURIE compacts an OBO class URI: the namespace is stripped and "_" becomes
// ":", so ".../obo/UBERON_0002107" gives "UBERON:0002107". Other URIs only
// get the underscore substitution.
func CURIE(uri string) string {
	id := strings.TrimPrefix(uri, OBOPrefix)
	return strings.ReplaceAll(id, "_", ":")
}

// SampleGroup pairs a sample with its treatment group label.
type SampleGroup struct {
	Sample string
	Group  string
}
