package rules

import (
	"fmt"
	"strings"
)

// FormatIndexingPreamble emits the extraction system-prompt addendum
// describing any learned indexing/exclude rules (spec.md §4.3 "Prompt
// shaping"). Empty string if nothing is set in either category.
func (s *Store) FormatIndexingPreamble() string {
	r := s.Load()

	var b strings.Builder
	if len(r.Indexing) > 0 {
		b.WriteString("ADDITIONAL INDEXING RULES:\n")
		writeNumbered(&b, r.Indexing)
	}
	if len(r.Exclude) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("DO NOT INDEX / EXCLUDE:\n")
		writeNumbered(&b, r.Exclude)
	}
	return b.String()
}

// FormatSearchPreamble emits the search-tool addendum describing any
// learned search rules.
func (s *Store) FormatSearchPreamble() string {
	r := s.Load()
	if len(r.Search) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("SEARCH RULES:\n")
	writeNumbered(&b, r.Search)
	return b.String()
}

func writeNumbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}
