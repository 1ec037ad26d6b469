package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxOpener struct{}

func (xlsxOpener) CanOpen(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xlsx")
}

func (xlsxOpener) Open(path string, opt Options) Source {
	return XLSXFile{Path: path, Sheet: opt.Sheet}
}

// XLSXFile reads one sheet of a workbook; the first non-empty row is the header.
type XLSXFile struct {
	Path  string
	Sheet string
}

func (x XLSXFile) Name() string {
	if x.Sheet != "" {
		return x.Path + "#" + x.Sheet
	}
	return x.Path
}

func (x XLSXFile) Read(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(x.Path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook '%s' has no sheets", filepath.Base(x.Path))
	}
	target := sheets[0]
	if x.Sheet != "" {
		target = ""
		for _, s := range sheets {
			if strings.EqualFold(s, x.Sheet) {
				target = s
				break
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				x.Sheet, filepath.Base(x.Path), strings.Join(sheets, ", "))
		}
	}
	rows, err := f.GetRows(target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}

	t := &Table{Origin: x.Path + "#" + target}
	for _, r := range rows {
		if isBlank(r) {
			continue
		}
		if t.Header == nil {
			h := make([]string, len(r))
			for i := range r {
				h[i] = strings.TrimSpace(r[i])
			}
			t.Header = h
			continue
		}
		t.Rows = append(t.Rows, r)
	}
	return t, nil
}
