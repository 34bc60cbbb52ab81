// Package groups derives treatment groups and pairwise contrasts from an
// OSDR sample table.
package groups

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cognicore/biomap/pkg/biomap"
	"github.com/cognicore/biomap/pkg/biomap/internalerr"
)

const (
	// Separator joins the factor values of one sample.
	Separator = " & "

	sampleColumn = 2
	factorColumn = 3
)

// SampleTableHeader is the header of the sample-to-group file.
var SampleTableHeader = []string{"Sample Name", "Treatment Group"}

var braces = strings.NewReplacer("{", "", "}", "")

// Label joins factor values into a group label with braces removed.
func Label(values []string) string {
	return braces.Replace(strings.Join(values, Separator))
}

// SampleGroups converts data rows (header excluded) of the form
// [row-index, sample-id, sample-name, factor values...] into unique
// (sample, group) pairs sorted by sample, then group.
func SampleGroups(rows [][]string) ([]biomap.SampleGroup, error) {
	seen := make(map[biomap.SampleGroup]struct{}, len(rows))
	out := make([]biomap.SampleGroup, 0, len(rows))
	for i, row := range rows {
		if len(row) < factorColumn {
			return nil, internalerr.Malformed("osdr", fmt.Sprintf("sample row %d has %d columns, want at least %d", i+1, len(row), factorColumn), nil)
		}
		sg := biomap.SampleGroup{Sample: row[sampleColumn], Group: Label(row[factorColumn:])}
		if _, dup := seen[sg]; dup {
			continue
		}
		seen[sg] = struct{}{}
		out = append(out, sg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sample != out[j].Sample {
			return out[i].Sample < out[j].Sample
		}
		return out[i].Group < out[j].Group
	})
	return out, nil
}

// UniqueGroups returns the distinct group labels in lexicographic order.
func UniqueGroups(pairs []biomap.SampleGroup) []string {
	set := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		set[p.Group] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Contrast is an unordered pair of distinct groups.
type Contrast struct {
	A, B string
}

// Label is the column heading "(A)v(B)".
func (c Contrast) Label() string {
	return "(" + c.A + ")v(" + c.B + ")"
}

// Contrasts enumerates every 2-combination of groups: (g0,g1), (g0,g2), ...,
// (g1,g2), ... in input order.
func Contrasts(groups []string) []Contrast {
	var out []Contrast
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			out = append(out, Contrast{A: groups[i], B: groups[j]})
		}
	}
	return out
}

// WriteSampleTable writes the header and one row per pair.
func WriteSampleTable(w io.Writer, pairs []biomap.SampleGroup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SampleTableHeader); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := cw.Write([]string{p.Sample, p.Group}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteContrasts writes the contrast matrix: a heading row of contrast
// labels, then rows "1" and "2" holding the first and second group of each.
func WriteContrasts(w io.Writer, contrasts []Contrast) error {
	header := make([]string, 0, len(contrasts)+1)
	first := make([]string, 0, len(contrasts)+1)
	second := make([]string, 0, len(contrasts)+1)
	header = append(header, "")
	first = append(first, "1")
	second = append(second, "2")
	for _, c := range contrasts {
		header = append(header, c.Label())
		first = append(first, c.A)
		second = append(second, c.B)
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll([][]string{header, first, second}); err != nil {
		return err
	}
	return cw.Error()
}
