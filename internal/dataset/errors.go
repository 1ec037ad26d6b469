package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaError lists every missing or mistyped column across the loaded
// tables. It is fatal: no dataset is produced.
type SchemaError struct {
	Problems []Issue
}

func (e *SchemaError) Error() string {
	if e == nil || len(e.Problems) == 0 {
		return "schema error"
	}
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s: %s", p.Table, p.Message))
	}
	return "schema error: " + strings.Join(parts, "; ")
}

// ValidationError aggregates row-level issues: counts per kind plus a few
// example offenders.
type ValidationError struct {
	Total    int
	Rejected int
	Counts   map[IssueKind]int
	Examples []Issue
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "validation failed"
	}
	kinds := make([]string, 0, len(e.Counts))
	for k := range e.Counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed: %d issues, %d rows rejected (", e.Total, e.Rejected)
	for i, k := range kinds {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%d", k, e.Counts[IssueKind(k)])
	}
	b.WriteString(")")
	if len(e.Examples) > 0 {
		ex := e.Examples[0]
		fmt.Fprintf(&b, "; e.g. %s row %d", ex.Table, ex.Row)
		if ex.Key != "" {
			fmt.Fprintf(&b, " (%s)", ex.Key)
		}
		fmt.Fprintf(&b, ": %s", ex.Message)
	}
	return b.String()
}
