package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/shortform-signals/internal/dataset"
	"github.com/KaramelBytes/shortform-signals/internal/source"
)

// tableSource reads one persisted table as raw strings so database rows go
// through the same validation as file rows.
type tableSource struct {
	store  *Store
	schema dataset.Schema
}

// Source returns a source reading the table described by sc.
func (s *Store) Source(sc dataset.Schema) source.Source {
	return tableSource{store: s, schema: sc}
}

// Sources returns sources for all three tables.
func (s *Store) Sources() dataset.Sources {
	return dataset.Sources{
		Videos:    s.Source(dataset.VideoSchema),
		Creators:  s.Source(dataset.CreatorSchema),
		Platforms: s.Source(dataset.PlatformSchema),
	}
}

func (t tableSource) Name() string {
	return string(t.store.driver) + ":" + t.schema.Table
}

func (t tableSource) Read(ctx context.Context) (*source.Table, error) {
	cols := persisted(t.schema)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(header, ", "), t.schema.Table, t.schema.Key)
	rows, err := t.store.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.schema.Table, err)
	}
	defer rows.Close()

	out := &source.Table{Origin: t.Name(), Header: header}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.schema.Table, err)
		}
		rec := make([]string, len(cols))
		for i, v := range vals {
			rec[i] = cell(v)
		}
		out.Rows = append(out.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", t.schema.Table, err)
	}
	return out, nil
}

// cell renders a scanned value; NULL becomes an empty cell.
func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
