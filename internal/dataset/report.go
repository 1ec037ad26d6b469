package dataset

import (
	"sort"
)

// IssueKind classifies a data-quality problem.
type IssueKind string

const (
	IssueMissingColumn   IssueKind = "missing_column"
	IssueMistypedColumn  IssueKind = "mistyped_column"
	IssueMissingValue    IssueKind = "missing_value"
	IssueInvalidValue    IssueKind = "invalid_value"
	IssueRange           IssueKind = "range"
	IssueDuplicateKey    IssueKind = "duplicate_key"
	IssueDuplicateRow    IssueKind = "duplicate_row"
	IssueOrphanCreator   IssueKind = "orphan_creator"
	IssueUnknownPlatform IssueKind = "unknown_platform"
)

// Severity tells whether an issue excluded its row.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one data-quality finding. Row is the 1-based data row (header
// excluded); zero for table-level issues.
type Issue struct {
	Table    string    `json:"table"`
	Row      int       `json:"row,omitempty"`
	Key      string    `json:"key,omitempty"`
	Column   string    `json:"column,omitempty"`
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// TableStats counts rows per table.
type TableStats struct {
	Table    string `json:"table"`
	Origin   string `json:"origin"`
	Read     int    `json:"read"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
}

// KindCount is one entry of the per-kind issue summary.
type KindCount struct {
	Kind     IssueKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Count    int       `json:"count"`
}

// Report is the structured validation report of one load.
type Report struct {
	Tables []TableStats `json:"tables"`
	Issues []Issue      `json:"issues"`
}

// Counts returns the number of issues per kind.
func (r *Report) Counts() map[IssueKind]int {
	out := map[IssueKind]int{}
	for _, is := range r.Issues {
		out[is.Kind]++
	}
	return out
}

// Summary lists issue counts per kind in a fixed order.
func (r *Report) Summary() []KindCount {
	type k struct {
		kind IssueKind
		sev  Severity
	}
	counts := map[k]int{}
	for _, is := range r.Issues {
		counts[k{is.Kind, is.Severity}]++
	}
	out := make([]KindCount, 0, len(counts))
	for key, n := range counts {
		out = append(out, KindCount{Kind: key.kind, Severity: key.sev, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind == out[j].Kind {
			return out[i].Severity < out[j].Severity
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// HasErrors reports whether any row or table was rejected.
func (r *Report) HasErrors() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Examples returns up to n issues of the given kind in report order.
func (r *Report) Examples(kind IssueKind, n int) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Kind != kind {
			continue
		}
		if len(out) >= n {
			break
		}
		out = append(out, is)
	}
	return out
}

// Stats returns the counters for one table.
func (r *Report) Stats(table string) (TableStats, bool) {
	for _, s := range r.Tables {
		if s.Table == table {
			return s, true
		}
	}
	return TableStats{}, false
}

// Err returns a *ValidationError aggregating every error-severity issue, or
// nil. Loads succeed partially; strict callers use this to fail instead.
func (r *Report) Err() error {
	if !r.HasErrors() {
		return nil
	}
	ve := &ValidationError{Counts: map[IssueKind]int{}}
	for _, is := range r.Issues {
		if is.Severity != SeverityError {
			continue
		}
		ve.Counts[is.Kind]++
		ve.Total++
		if len(ve.Examples) < maxExamples {
			ve.Examples = append(ve.Examples, is)
		}
	}
	for _, s := range r.Tables {
		ve.Rejected += s.Rejected
	}
	return ve
}

const maxExamples = 5

var tableOrder = map[string]int{TableCreators: 0, TablePlatforms: 1, TableVideos: 2}

func (r *Report) sortIssues() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.Table != b.Table {
			return tableOrder[a.Table] < tableOrder[b.Table]
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Column < b.Column
	})
}
