// Package source reads raw tables (a header row plus string records) from
// delimited files and XLSX workbooks. Typing and validation happen later in
// the dataset package, so every source is consumed the same way.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Table is an untyped table as read from its origin.
type Table struct {
	Origin string
	Header []string
	Rows   [][]string
}

// Source yields one raw table.
type Source interface {
	Name() string
	Read(ctx context.Context) (*Table, error)
}

// Options tunes file sources.
type Options struct {
	// Delimiter for delimited files. If 0, inferred from the extension.
	Delimiter rune
	// Sheet selects an XLSX sheet. Empty means the first sheet.
	Sheet string
}

// opener builds a Source for paths it recognizes.
type opener interface {
	CanOpen(path string) bool
	Open(path string, opt Options) Source
}

var registry []opener

// register adds an opener to the registry.
func register(o opener) {
	registry = append(registry, o)
}

func init() {
	register(csvOpener{})
	register(xlsxOpener{})
}

// ErrUnsupported indicates a file format no source can read.
var ErrUnsupported = errors.New("unsupported table format")

// Open picks a source by file extension. A "#sheet" suffix on a workbook
// path overrides opt.Sheet.
func Open(path string, opt Options) (Source, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty table path")
	}
	if i := strings.LastIndex(p, "#"); i > 0 && strings.EqualFold(filepath.Ext(p[:i]), ".xlsx") {
		opt.Sheet = p[i+1:]
		p = p[:i]
	}
	for _, o := range registry {
		if o.CanOpen(p) {
			return o.Open(p, opt), nil
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(p), ErrUnsupported)
}

// Static serves an in-memory table; useful for tests and for callers that
// already hold decoded records.
type Static struct {
	Label  string
	Header []string
	Rows   [][]string
}

func (s Static) Name() string { return s.Label }

func (s Static) Read(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := make([][]string, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = append([]string(nil), r...)
	}
	return &Table{Origin: s.Label, Header: append([]string(nil), s.Header...), Rows: rows}, nil
}
