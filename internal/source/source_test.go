package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCSVFileReadsHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "creators.csv")
	body := "\xEF\xBB\xBFcreator_id, creator_name,niche,followers\nc1,Ana,comedy,100\n\nc2,Bo,tech,200\n"
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))

	src, err := Open(p, Options{})
	require.NoError(t, err)
	tbl, err := src.Read(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"creator_id", "creator_name", "niche", "followers"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"c2", "Bo", "tech", "200"}, tbl.Rows[1])
}

func TestTSVDelimiterInferred(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "platforms.tsv")
	require.NoError(t, os.WriteFile(p, []byte("platform\talgorithm_type\ntiktok\tinterest\n"), 0o644))

	tbl, err := CSVFile{Path: p}.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"platform", "algorithm_type"}, tbl.Header)
	assert.Equal(t, [][]string{{"tiktok", "interest"}}, tbl.Rows)
}

func TestEmptyFileYieldsEmptyTable(t *testing.T) {
	tbl, err := ReadDelimited(strings.NewReader(""), "empty", ',')
	require.NoError(t, err)
	assert.Nil(t, tbl.Header)
	assert.Empty(t, tbl.Rows)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("videos.parquet", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestXLSXFileSheetSelection(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "shortform.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "shortform_platforms"))
	_, err := f.NewSheet("shortform_creators")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("shortform_platforms", "A1", &[]interface{}{"platform", "daily_users_millions"}))
	require.NoError(t, f.SetSheetRow("shortform_platforms", "A2", &[]interface{}{"tiktok", 1000}))
	require.NoError(t, f.SetSheetRow("shortform_creators", "A1", &[]interface{}{"creator_id", "followers"}))
	require.NoError(t, f.SetSheetRow("shortform_creators", "A2", &[]interface{}{"c1", 42}))
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	src, err := Open(p+"#shortform_creators", Options{})
	require.NoError(t, err)
	tbl, err := src.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"creator_id", "followers"}, tbl.Header)
	assert.Equal(t, [][]string{{"c1", "42"}}, tbl.Rows)

	first, err := XLSXFile{Path: p}.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"platform", "daily_users_millions"}, first.Header)

	_, err = XLSXFile{Path: p, Sheet: "missing"}.Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available sheets")
}

func TestStaticCopiesRows(t *testing.T) {
	s := Static{Label: "mem", Header: []string{"a"}, Rows: [][]string{{"1"}}}
	tbl, err := s.Read(context.Background())
	require.NoError(t, err)
	tbl.Rows[0][0] = "changed"
	assert.Equal(t, "1", s.Rows[0][0])
}
