package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/shortform-signals/internal/logger"
	"github.com/KaramelBytes/shortform-signals/internal/source"
)

// Sources bundles the three raw tables. Any source kind may be mixed.
type Sources struct {
	Videos    source.Source
	Creators  source.Source
	Platforms source.Source
}

// Loader reads, validates and joins the three tables.
type Loader struct {
	validate *validator.Validate
	log      *logger.Logger
}

// NewLoader returns a Loader. A nil logger discards output.
func NewLoader(log *logger.Logger) *Loader {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("csv"); name != "" {
			return name
		}
		return f.Name
	})
	return &Loader{validate: v, log: logger.OrNop(log).With("component", "loader")}
}

// rawRow is one source record reduced to the schema's columns.
type rawRow struct {
	row         int
	cells       map[string]string
	key         string
	fingerprint string
	rejected    bool
	// duplicate marks a later exact copy; its content is checked on the first copy.
	duplicate bool
	// badCells lists columns that are empty or unparseable. Range rules
	// skip them and the fields that depend on them.
	badCells []string
}

type stagedTable struct {
	schema Schema
	origin string
	rows   []*rawRow
}

// Load reads every source, checks all tables and returns the accepted rows.
// Source I/O failures and schema problems are returned as errors; row-level
// problems exclude the row and are listed in the report.
func (l *Loader) Load(ctx context.Context, src Sources) (*Dataset, *Report, error) {
	inputs := []struct {
		schema Schema
		src    source.Source
	}{
		{CreatorSchema, src.Creators},
		{PlatformSchema, src.Platforms},
		{VideoSchema, src.Videos},
	}
	rep := &Report{}
	staged := map[string]*stagedTable{}
	var schemaProblems []Issue
	for _, in := range inputs {
		if in.src == nil {
			return nil, nil, fmt.Errorf("no source configured for %s", in.schema.Table)
		}
		raw, err := in.src.Read(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s from %s: %w", in.schema.Table, in.src.Name(), err)
		}
		st, problems := l.stage(in.schema, raw, rep)
		staged[in.schema.Table] = st
		schemaProblems = append(schemaProblems, problems...)
	}
	if len(schemaProblems) > 0 {
		rep.Issues = append(rep.Issues, schemaProblems...)
		for _, in := range inputs {
			st := staged[in.schema.Table]
			rep.Tables = append(rep.Tables, TableStats{Table: st.schema.Table, Origin: st.origin, Read: len(st.rows), Rejected: len(st.rows)})
		}
		rep.sortIssues()
		l.log.Error("schema check failed", "problems", len(schemaProblems))
		return nil, rep, &SchemaError{Problems: schemaProblems}
	}

	creators, creatorIDs := l.buildCreators(staged[TableCreators], rep)
	platforms, platformNames := l.buildPlatforms(staged[TablePlatforms], rep)
	videos := l.buildVideos(staged[TableVideos], staged[TableCreators], creatorIDs, platformNames, rep)

	for _, in := range inputs {
		st := staged[in.schema.Table]
		s := TableStats{Table: st.schema.Table, Origin: st.origin, Read: len(st.rows)}
		for _, r := range st.rows {
			if r.rejected {
				s.Rejected++
			}
		}
		s.Accepted = s.Read - s.Rejected
		rep.Tables = append(rep.Tables, s)
		l.log.Info("table loaded", "table", s.Table, "origin", s.Origin, "read", s.Read, "accepted", s.Accepted, "rejected", s.Rejected)
	}
	rep.sortIssues()
	for _, kc := range rep.Summary() {
		l.log.Warn("data quality issue", "kind", kc.Kind, "severity", kc.Severity, "count", kc.Count)
	}
	return New(videos, creators, platforms), rep, nil
}

// stage checks the header, extracts cells, type-checks them and runs the
// duplicate and key checks. Schema problems are returned, not recorded.
func (l *Loader) stage(schema Schema, raw *source.Table, rep *Report) (*stagedTable, []Issue) {
	st := &stagedTable{schema: schema, origin: raw.Origin}
	index := map[string]int{}
	for i, h := range raw.Header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var problems []Issue
	if len(raw.Header) == 0 {
		problems = append(problems, Issue{Table: schema.Table, Kind: IssueMissingColumn, Severity: SeverityError, Message: "table has no header row"})
	}
	for _, c := range schema.Columns {
		if _, ok := index[c.Name]; !ok && !c.Optional && len(raw.Header) > 0 {
			problems = append(problems, Issue{Table: schema.Table, Column: c.Name, Kind: IssueMissingColumn, Severity: SeverityError,
				Message: fmt.Sprintf("required column %s (%s) is missing", c.Name, c.Kind)})
		}
	}

	for i, rec := range raw.Rows {
		r := &rawRow{row: i + 1, cells: make(map[string]string, len(schema.Columns))}
		parts := make([]string, 0, len(schema.Columns))
		for _, c := range schema.Columns {
			v := ""
			if idx, ok := index[c.Name]; ok && idx < len(rec) {
				v = strings.TrimSpace(rec[idx])
			}
			r.cells[c.Name] = v
			parts = append(parts, v)
		}
		r.key = r.cells[schema.Key]
		r.fingerprint = strings.Join(parts, "\x1f")
		st.rows = append(st.rows, r)
	}

	// A typed column in which no non-empty cell parses is mistyped as a whole.
	for _, c := range schema.Columns {
		if c.Kind == KindText {
			continue
		}
		if _, ok := index[c.Name]; !ok {
			continue
		}
		nonEmpty, parsed := 0, 0
		for _, r := range st.rows {
			v := r.cells[c.Name]
			if v == "" {
				continue
			}
			nonEmpty++
			if checkCell(c.Kind, v) == nil {
				parsed++
			}
		}
		if nonEmpty > 0 && parsed == 0 {
			problems = append(problems, Issue{Table: schema.Table, Column: c.Name, Kind: IssueMistypedColumn, Severity: SeverityError,
				Message: fmt.Sprintf("column %s holds no %s values", c.Name, c.Kind)})
		}
	}
	if len(problems) > 0 {
		return st, problems
	}

	for _, r := range st.rows {
		for _, c := range schema.Columns {
			v := r.cells[c.Name]
			if v == "" {
				if !c.Optional {
					l.badCell(rep, schema.Table, r, c.Name, IssueMissingValue, fmt.Sprintf("%s is empty", c.Name))
				}
				continue
			}
			if err := checkCell(c.Kind, v); err != nil {
				l.badCell(rep, schema.Table, r, c.Name, IssueInvalidValue, fmt.Sprintf("%s: %v", c.Name, err))
			}
		}
	}

	// Exact duplicates: keep the first copy.
	firstSeen := map[string]int{}
	for _, r := range st.rows {
		if prev, ok := firstSeen[r.fingerprint]; ok {
			r.duplicate = true
			l.reject(rep, schema.Table, r, "", IssueDuplicateRow, fmt.Sprintf("exact duplicate of row %d", prev))
			r.fingerprint = ""
			continue
		}
		firstSeen[r.fingerprint] = r.row
	}
	// Conflicting rows sharing a key: none is trustworthy, reject all.
	byKey := map[string][]*rawRow{}
	for _, r := range st.rows {
		if r.key == "" || r.fingerprint == "" {
			continue
		}
		byKey[r.key] = append(byKey[r.key], r)
	}
	for _, r := range st.rows {
		group := byKey[r.key]
		if r.fingerprint == "" || len(group) < 2 {
			continue
		}
		l.reject(rep, schema.Table, r, schema.Key, IssueDuplicateKey,
			fmt.Sprintf("%s %q appears in %d conflicting rows", schema.Key, r.key, len(group)))
	}
	return st, nil
}

func (l *Loader) badCell(rep *Report, table string, r *rawRow, column string, kind IssueKind, msg string) {
	r.badCells = append(r.badCells, column)
	l.reject(rep, table, r, column, kind, msg)
}

func (l *Loader) reject(rep *Report, table string, r *rawRow, column string, kind IssueKind, msg string) {
	r.rejected = true
	rep.Issues = append(rep.Issues, Issue{Table: table, Row: r.row, Key: r.key, Column: column, Kind: kind, Severity: SeverityError, Message: msg})
}

func (l *Loader) warn(rep *Report, table string, r *rawRow, column string, kind IssueKind, msg string) {
	rep.Issues = append(rep.Issues, Issue{Table: table, Row: r.row, Key: r.key, Column: column, Kind: kind, Severity: SeverityWarning, Message: msg})
}

// checkRange runs the struct-tag range rules and rejects on any failure.
// Fields backed by a bad cell, and fields compared against one, are skipped
// so a row's remaining violations are still reported.
func (l *Loader) checkRange(rep *Report, table string, r *rawRow, v interface{}) {
	var err error
	if skip := skippedFields(r.badCells); len(skip) > 0 {
		err = l.validate.StructExcept(v, skip...)
	} else {
		err = l.validate.Struct(v)
	}
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		l.reject(rep, table, r, "", IssueRange, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		kind := IssueRange
		if fe.Tag() == "required" {
			kind = IssueMissingValue
		}
		l.reject(rep, table, r, fe.Field(), kind, formatFieldError(fe))
	}
}

func (l *Loader) buildCreators(st *stagedTable, rep *Report) ([]Creator, map[string]bool) {
	var out []Creator
	ids := map[string]bool{}
	for _, r := range st.rows {
		if r.duplicate {
			continue
		}
		c := Creator{
			CreatorID:   r.cells["creator_id"],
			CreatorName: r.cells["creator_name"],
			Niche:       r.cells["niche"],
			Followers:   mustInt(r.cells["followers"]),
		}
		l.checkRange(rep, st.schema.Table, r, c)
		if r.rejected {
			continue
		}
		out = append(out, c)
		ids[c.CreatorID] = true
	}
	return out, ids
}

func (l *Loader) buildPlatforms(st *stagedTable, rep *Report) ([]Platform, map[string]bool) {
	var out []Platform
	names := map[string]bool{}
	for _, r := range st.rows {
		if r.duplicate {
			continue
		}
		p := Platform{
			Platform:           r.cells["platform"],
			DailyUsersMillions: mustInt(r.cells["daily_users_millions"]),
			AvgSessionTimeMin:  mustFloat(r.cells["avg_session_time_min"]),
			AlgorithmType:      r.cells["algorithm_type"],
		}
		l.checkRange(rep, st.schema.Table, r, p)
		if r.rejected {
			continue
		}
		out = append(out, p)
		names[p.Platform] = true
	}
	return out, names
}

func (l *Loader) buildVideos(st, creatorTable *stagedTable, creators, platforms map[string]bool, rep *Report) []Video {
	known := map[string]bool{}
	for _, r := range creatorTable.rows {
		if r.key != "" {
			known[r.key] = true
		}
	}
	var out []Video
	for _, r := range st.rows {
		cid := r.cells["creator_id"]
		if cid != "" {
			if !creators[cid] {
				msg := fmt.Sprintf("creator_id %q not found in %s", cid, TableCreators)
				if known[cid] {
					msg = fmt.Sprintf("creator_id %q was rejected during validation", cid)
				}
				l.reject(rep, st.schema.Table, r, "creator_id", IssueOrphanCreator, msg)
			}
		}
		if tag := r.cells["platform"]; tag != "" {
			if !platforms[tag] {
				l.warn(rep, st.schema.Table, r, "platform", IssueUnknownPlatform,
					fmt.Sprintf("platform tag %q not listed in %s", tag, TablePlatforms))
			}
		}
		// Rows with only referential problems still get range-checked so
		// every violation is reported.
		if r.duplicate {
			continue
		}
		v := Video{
			VideoID:       r.cells["video_id"],
			CreatorID:     cid,
			FormatType:    r.cells["format_type"],
			DurationSec:   mustInt(r.cells["duration_sec"]),
			Views:         mustInt(r.cells["views"]),
			Likes:         mustInt(r.cells["likes"]),
			Comments:      mustInt(r.cells["comments"]),
			Shares:        mustInt(r.cells["shares"]),
			WatchTime:     mustInt(r.cells["watch_time"]),
			FullViews:     mustInt(r.cells["full_views"]),
			HookWatchRate: mustFloat(r.cells["hook_watch_rate"]),
			Platform:      r.cells["platform"],
		}
		l.checkRange(rep, st.schema.Table, r, v)
		if r.rejected {
			continue
		}
		out = append(out, v)
	}
	return out
}

func checkCell(kind Kind, v string) error {
	switch kind {
	case KindInt:
		_, err := parseInt(v)
		return err
	case KindFloat:
		_, err := parseFloat(v)
		return err
	default:
		return nil
	}
}

func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	// Spreadsheet and dataframe exports often write integers as "12.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int64(f), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

func mustInt(s string) int64 {
	n, _ := parseInt(s)
	return n
}

func mustFloat(s string) float64 {
	f, _ := parseFloat(s)
	return f
}

var (
	columnOfField = map[string]string{}
	fieldOfColumn = map[string]string{}
	// dependents maps a field to the fields whose rules compare against it
	dependents = map[string][]string{}
)

func init() {
	for _, t := range []reflect.Type{reflect.TypeOf(Video{}), reflect.TypeOf(Creator{}), reflect.TypeOf(Platform{})} {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			col := f.Tag.Get("csv")
			columnOfField[f.Name] = col
			fieldOfColumn[col] = f.Name
			for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
				if tag, ref, ok := strings.Cut(rule, "="); ok && strings.HasSuffix(tag, "field") {
					dependents[ref] = append(dependents[ref], f.Name)
				}
			}
		}
	}
}

func skippedFields(columns []string) []string {
	var out []string
	for _, col := range columns {
		field, ok := fieldOfColumn[col]
		if !ok {
			continue
		}
		out = append(out, field)
		out = append(out, dependents[field]...)
	}
	return out
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got %v)", field, param, fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s (got %v)", field, param, fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s (got %v)", field, param, fe.Value())
	case "ltefield":
		if col, ok := columnOfField[param]; ok && col != "" {
			param = col
		}
		return fmt.Sprintf("%s (%v) must not exceed %s", field, fe.Value(), param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
