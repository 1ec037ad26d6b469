package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type csvOpener struct{}

func (csvOpener) CanOpen(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvOpener) Open(path string, opt Options) Source {
	return CSVFile{Path: path, Delimiter: opt.Delimiter}
}

// CSVFile reads a delimited flat file with a header row.
type CSVFile struct {
	Path      string
	Delimiter rune
}

func (c CSVFile) Name() string { return c.Path }

func (c CSVFile) Read(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	b = bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
	return ReadDelimited(bytes.NewReader(b), c.Path, c.delimiter())
}

func (c CSVFile) delimiter() rune {
	if c.Delimiter != 0 {
		return c.Delimiter
	}
	return sniffDelimiter(c.Path)
}

// ReadDelimited parses delimited text into a Table. Short records are kept
// as-is; the dataset layer treats absent cells as missing values.
func ReadDelimited(r io.Reader, origin string, delim rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	t := &Table{Origin: origin}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	t.Header = header
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
