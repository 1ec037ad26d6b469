package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/shortform-signals/internal/dataset"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "signals.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fixture() *dataset.Dataset {
	return dataset.New(
		[]dataset.Video{
			{VideoID: "v2", CreatorID: "c1", FormatType: "duet", DurationSec: 30, Views: 0, HookWatchRate: 0.25, Platform: "tiktok"},
			{VideoID: "v1", CreatorID: "c1", FormatType: "meme", DurationSec: 15, Views: 1000000, Likes: 10, Comments: 2, Shares: 3, WatchTime: 900, FullViews: 40, HookWatchRate: 0.8},
		},
		[]dataset.Creator{{CreatorID: "c1", CreatorName: "Ana", Niche: "comedy", Followers: 1000}},
		[]dataset.Platform{{Platform: "tiktok", DailyUsersMillions: 1000, AvgSessionTimeMin: 52.5, AlgorithmType: "interest_graph"}},
	)
}

func TestReplaceAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.Replace(ctx, fixture()))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{dataset.TableVideos: 2, dataset.TableCreators: 1, dataset.TablePlatforms: 1}, counts)

	ds, rep, err := dataset.NewLoader(nil).Load(ctx, s.Sources())
	require.NoError(t, err)
	assert.Empty(t, rep.Issues)

	videos := ds.Videos()
	require.Len(t, videos, 2)
	// ordered by key, platform tag not persisted
	assert.Equal(t, "v1", videos[0].VideoID)
	assert.Equal(t, int64(1000000), videos[0].Views)
	assert.Equal(t, "", videos[1].Platform)
	p, ok := ds.Platform("tiktok")
	require.True(t, ok)
	assert.InDelta(t, 52.5, p.AvgSessionTimeMin, 1e-12)
}

func TestReplaceOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.Replace(ctx, fixture()))
	require.NoError(t, s.Replace(ctx, dataset.New(nil, []dataset.Creator{{CreatorID: "c9", CreatorName: "Z", Niche: "x"}}, nil)))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts[dataset.TableVideos])
	assert.Equal(t, 1, counts[dataset.TableCreators])
}

func TestReadEmptyTables(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	require.NoError(t, s.InitSchema(ctx))
	tbl, err := s.Source(dataset.CreatorSchema).Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"creator_id", "creator_name", "niche", "followers"}, tbl.Header)
	assert.Empty(t, tbl.Rows)
	assert.Equal(t, "sqlite:shortform_creators", tbl.Origin)
}

func TestCreateStatementPerDriver(t *testing.T) {
	lite := &Store{driver: DriverSQLite}
	pg := &Store{driver: DriverPostgres}
	assert.Contains(t, lite.createStatement(dataset.VideoSchema), "video_id TEXT PRIMARY KEY")
	assert.Contains(t, lite.createStatement(dataset.VideoSchema), "hook_watch_rate REAL NOT NULL")
	assert.NotContains(t, lite.createStatement(dataset.VideoSchema), "platform")
	assert.Contains(t, pg.createStatement(dataset.PlatformSchema), "avg_session_time_min DOUBLE PRECISION")
	assert.Contains(t, pg.insertStatement(dataset.CreatorSchema), "VALUES ($1, $2, $3, $4)")
	assert.Contains(t, lite.insertStatement(dataset.CreatorSchema), "VALUES (?, ?, ?, ?)")
}

func TestParseDriver(t *testing.T) {
	d, err := ParseDriver("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, d)
	d, err = ParseDriver("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, d)
	_, err = ParseDriver("mysql")
	assert.Error(t, err)
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), DriverSQLite, " ", nil)
	assert.Error(t, err)
}
