package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/shortform-signals/internal/utils"
)

// Manifest describes one output run.
type Manifest struct {
	RunID     string            `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	Format    Format            `json:"format"`
	Inputs    map[string]string `json:"inputs,omitempty"`
	Files     []FileEntry       `json:"files"`
}

// FileEntry maps a table to the file it was written to.
type FileEntry struct {
	Table string `json:"table"`
	File  string `json:"file"`
	Rows  int    `json:"rows"`
}

const ManifestFile = "manifest.json"

// Save writes every table to dir in the given format plus a manifest.json.
// XLSX output puts all tables into a single workbook.
func Save(dir string, format Format, tables []*Table, inputs map[string]string) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	m := &Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Format:    format,
		Inputs:    inputs,
	}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	switch format {
	case FormatXLSX:
		name := "signals.xlsx"
		if err := WriteXLSX(filepath.Join(dir, name), tables); err != nil {
			return nil, err
		}
		for _, t := range tables {
			m.Files = append(m.Files, FileEntry{Table: t.Name, File: name + "#" + SheetName(t.Name), Rows: len(t.Rows)})
		}
	case FormatCSV, FormatJSON, FormatMarkdown:
		for _, t := range tables {
			var buf bytes.Buffer
			var err error
			switch format {
			case FormatCSV:
				err = WriteCSV(&buf, t)
			case FormatJSON:
				err = WriteJSON(&buf, t)
			default:
				err = WriteMarkdown(&buf, t)
			}
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", t.Name, err)
			}
			name := t.Name + "." + string(format)
			if err := utils.SafeWriteFile(filepath.Join(dir, name), buf.Bytes()); err != nil {
				return nil, err
			}
			m.Files = append(m.Files, FileEntry{Table: t.Name, File: name, Rows: len(t.Rows)})
		}
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	b, err := utils.PrettyJSON(m)
	if err != nil {
		return nil, err
	}
	if err := utils.SafeWriteFile(filepath.Join(dir, ManifestFile), b); err != nil {
		return nil, err
	}
	return m, nil
}
