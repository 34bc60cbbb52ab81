package batch

// DefaultSize is the largest term list the BioPortal recommender handles reliably.
const DefaultSize = 50

// Unique returns terms without duplicates or empty strings, keeping the
// first occurrence order.
func Unique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Chunk splits terms into consecutive batches of at most size elements.
// A non-positive size falls back to DefaultSize. Empty input yields no batches.
func Chunk(terms []string, size int) [][]string {
	if size <= 0 {
		size = DefaultSize
	}
	var chunks [][]string
	for i := 0; i < len(terms); i += size {
		end := min(i+size, len(terms))
		chunks = append(chunks, terms[i:end:end])
	}
	return chunks
}
