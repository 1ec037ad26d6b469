package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/shortform-signals/internal/report"
)

func tables() *report.Set {
	var s report.Set
	rk := &report.Table{Name: "creator_ranking", Columns: []string{"rank", "creator_id"}}
	rk.Append("1", "c5")
	rk.Append("2", "c2")
	s.Add(rk, &report.Table{Name: "insights", Columns: []string{"topic"}})
	return &s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, NewRouter(tables(), "run-1", nil), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "run-1", body["run_id"])
	assert.EqualValues(t, 2, body["tables"])
}

func TestListTables(t *testing.T) {
	rec := get(t, NewRouter(tables(), "", nil), "/tables")
	require.Equal(t, http.StatusOK, rec.Code)
	var infos []TableInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "creator_ranking", infos[0].Name)
	assert.Equal(t, 2, infos[0].Rows)
}

func TestGetTable(t *testing.T) {
	h := NewRouter(tables(), "", nil)
	rec := get(t, h, "/tables/creator_ranking")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var tbl report.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tbl))
	assert.Equal(t, []string{"rank", "creator_id"}, tbl.Columns)
	assert.Equal(t, [][]string{{"1", "c5"}, {"2", "c2"}}, tbl.Rows)

	rec = get(t, h, "/tables/creator_ranking?shape=records")
	var recs []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	assert.Equal(t, "c2", recs[1]["creator_id"])
}

func TestUnknownTableIs404(t *testing.T) {
	h := NewRouter(tables(), "", nil)
	rec := get(t, h, "/tables/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var pd ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
	assert.Equal(t, http.StatusNotFound, pd.Status)
	assert.Contains(t, pd.Detail, "nope")

	rec = get(t, h, "/elsewhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", NewRouter(tables(), "", nil), nil) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
