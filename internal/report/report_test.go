package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() *Table {
	t := &Table{Name: "creator_ranking", Columns: []string{"rank", "creator_id", "mean_retention"}}
	t.Append("1", "c5", "0.9")
	t.Append("2", "c2", "")
	return t
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))
	assert.Equal(t, "rank,creator_id,mean_retention\n1,c5,0.9\n2,c2,\n", buf.String())
}

func TestWriteJSONKeepsEmptyCells(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sample()))
	var recs []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "c5", recs[0]["creator_id"])
	v, ok := recs[1]["mean_retention"]
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestWriteMarkdown(t *testing.T) {
	tbl := sample()
	tbl.Append("3", "a|b", "0.1")
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, tbl))
	out := buf.String()
	assert.Contains(t, out, "### creator_ranking")
	assert.Contains(t, out, "| rank | creator_id | mean_retention |")
	assert.Contains(t, out, "|---|---|---|")
	assert.Contains(t, out, "| 3 | a/b | 0.1 |")
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, sample())
	out := buf.String()
	assert.Contains(t, out, "creator_ranking (2 rows)")
	assert.Contains(t, out, "creator_id")
	assert.Contains(t, out, "c5")
}

func TestValidateRowWidth(t *testing.T) {
	tbl := sample()
	tbl.Append("3")
	assert.Error(t, tbl.Validate())
	assert.Error(t, (&Table{}).Validate())
}

func TestSetLookup(t *testing.T) {
	var s Set
	s.Add(sample(), &Table{Name: "a_first"})
	got, ok := s.Get("creator_ranking")
	require.True(t, ok)
	assert.Len(t, got.Rows, 2)
	_, ok = s.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"a_first", "creator_ranking"}, s.Names())
}

func TestSaveCSVWithManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	m, err := Save(dir, FormatCSV, []*Table{sample()}, map[string]string{"videos": "v.csv"})
	require.NoError(t, err)

	_, err = uuid.Parse(m.RunID)
	assert.NoError(t, err)
	require.Len(t, m.Files, 1)
	assert.Equal(t, "creator_ranking.csv", m.Files[0].File)

	b, err := os.ReadFile(filepath.Join(dir, "creator_ranking.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "c5")

	b, err = os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	var back Manifest
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, m.RunID, back.RunID)
	assert.Equal(t, "v.csv", back.Inputs["videos"])
}

func TestSaveXLSX(t *testing.T) {
	dir := t.TempDir()
	other := &Table{Name: "correlation_matrix_with_a_very_long_name", Columns: []string{"metric"}}
	other.Append("views")
	m, err := Save(dir, FormatXLSX, []*Table{sample(), other}, nil)
	require.NoError(t, err)
	require.Len(t, m.Files, 2)

	f, err := excelize.OpenFile(filepath.Join(dir, "signals.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"creator_ranking", SheetName(other.Name)}, f.GetSheetList())
	rows, err := f.GetRows("creator_ranking")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "c5", "0.9"}, rows[1])
}

func TestSaveRejectsRaggedTable(t *testing.T) {
	tbl := sample()
	tbl.Append("x")
	_, err := Save(t.TempDir(), FormatJSON, []*Table{tbl}, nil)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "JSON": FormatJSON, "markdown": FormatMarkdown, "xlsx": FormatXLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("parquet")
	assert.Error(t, err)
}
