package metrics

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/shortform-signals/internal/dataset"
)

func fixture() *dataset.Dataset {
	creators := []dataset.Creator{
		{CreatorID: "c1", CreatorName: "Ana", Niche: "comedy", Followers: 1000},
		{CreatorID: "c2", CreatorName: "Bo", Niche: "tech", Followers: 500},
	}
	videos := []dataset.Video{
		{VideoID: "v1", CreatorID: "c1", FormatType: "meme", DurationSec: 15, Views: 100, Likes: 10, Comments: 5, Shares: 5, WatchTime: 1200, FullViews: 50, HookWatchRate: 0.8, Platform: "tiktok"},
		{VideoID: "v2", CreatorID: "c1", FormatType: "tutorial", DurationSec: 50, Views: 0, HookWatchRate: 0.3},
		{VideoID: "v3", CreatorID: "c2", FormatType: "meme", DurationSec: 16, Views: 200, Likes: 20, Comments: 0, Shares: 0, WatchTime: 2000, FullViews: 50, HookWatchRate: 0.29},
	}
	return dataset.New(videos, creators, nil)
}

func derive(t *testing.T) *Table {
	t.Helper()
	tbl, err := Derive(fixture(), DefaultOptions())
	require.NoError(t, err)
	return tbl
}

func TestRatioGuard(t *testing.T) {
	assert.False(t, Ratio(1, 0).Defined())
	assert.False(t, Of(math.NaN()).Defined())
	assert.False(t, Of(math.Inf(1)).Defined())
	v, ok := Ratio(1, 4).Get()
	require.True(t, ok)
	assert.InDelta(t, 0.25, v, 1e-12)
	assert.Equal(t, "", Undefined.String())
	assert.Equal(t, "0.25", Ratio(1, 4).String())
	assert.Equal(t, "0.250", Ratio(1, 4).Format(3))
	assert.Equal(t, 7.0, Undefined.Or(7))
}

func TestValueJSON(t *testing.T) {
	b, err := json.Marshal([]Value{Of(0.5), Undefined})
	require.NoError(t, err)
	assert.JSONEq(t, `[0.5, null]`, string(b))

	var back []Value
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []Value{Of(0.5), Undefined}, back)
}

func TestDeriveZeroViewsIsUndefined(t *testing.T) {
	tbl := derive(t)
	rows := tbl.Rows()
	require.Len(t, rows, 3)

	d := rows[1].Derived
	assert.False(t, d.RetentionRate.Defined())
	assert.False(t, d.EngagementRate.Defined())
	assert.False(t, d.AvgWatchTimePerView.Defined())

	guards := tbl.Guards()
	require.Len(t, guards, 1)
	assert.Equal(t, GuardZeroDenominator, guards[0].Kind)
	assert.Equal(t, 1, guards[0].Count)

	// mean retention skips the undefined entry: (0.5 + 0.25) / 2
	aggs, err := tbl.Aggregate(ByCreator)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, "c1", aggs[0].Key)
	assert.Equal(t, 2, aggs[0].Videos)
	assert.Equal(t, 1, aggs[0].Retention.N)
	assert.InDelta(t, 0.5, aggs[0].Retention.Mean.Or(-1), 1e-12)

	s := tbl.Summary()
	assert.InDelta(t, 0.375, s.MeanRetention.Or(-1), 1e-12)
	assert.Equal(t, 1, s.ZeroViewVideos)
}

func TestDerivedRangeProperties(t *testing.T) {
	for _, r := range derive(t).Rows() {
		ret, rok := r.Derived.RetentionRate.Get()
		eng, eok := r.Derived.EngagementRate.Get()
		assert.Equal(t, r.Video.Views != 0, rok)
		assert.Equal(t, r.Video.Views != 0, eok)
		if rok {
			assert.True(t, ret >= 0 && ret <= 1)
			assert.GreaterOrEqual(t, eng, 0.0)
		}
	}
}

func TestDeriveValues(t *testing.T) {
	d := derive(t).Rows()[0].Derived
	assert.InDelta(t, 0.5, d.RetentionRate.Or(-1), 1e-12)
	assert.InDelta(t, 0.2, d.EngagementRate.Or(-1), 1e-12)
	assert.InDelta(t, 12.0, d.AvgWatchTimePerView.Or(-1), 1e-12)
	assert.InDelta(t, 0.1, d.LikeToViewRatio.Or(-1), 1e-12)
	assert.InDelta(t, 0.05, d.ShareToViewRatio.Or(-1), 1e-12)
	assert.Equal(t, HookHigh, d.HookBucket)
	assert.Equal(t, "0-15s", d.DurationBucket)
}

func TestDeriveIsDeterministic(t *testing.T) {
	a, err := json.Marshal(derive(t).Rows())
	require.NoError(t, err)
	b, err := json.Marshal(derive(t).Rows())
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestDeriveRejectsOrphan(t *testing.T) {
	ds := dataset.New([]dataset.Video{{VideoID: "v1", CreatorID: "x", DurationSec: 1}}, nil, nil)
	_, err := Derive(ds, DefaultOptions())
	require.Error(t, err)
}

func TestHookBuckets(t *testing.T) {
	opt := DefaultOptions()
	cases := []struct {
		rate float64
		want HookBucket
	}{
		{0, HookLow}, {0.29, HookLow}, {0.3, HookMedium}, {0.69, HookMedium}, {0.7, HookHigh}, {1, HookHigh},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, opt.HookBucketOf(c.rate), "rate %g", c.rate)
	}
}

func TestDurationBuckets(t *testing.T) {
	opt := DefaultOptions()
	labels := []string{}
	for _, b := range opt.DurationBuckets() {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{"0-15s", "15-30s", "30-45s", "45-60s", "60s+"}, labels)
	assert.Equal(t, "0-15s", opt.DurationBucketOf(15).Label)
	assert.Equal(t, "15-30s", opt.DurationBucketOf(16).Label)
	assert.Equal(t, "45-60s", opt.DurationBucketOf(60).Label)
	assert.Equal(t, "60s+", opt.DurationBucketOf(61).Label)
}

func TestGroupByDurationListsEmptyBuckets(t *testing.T) {
	aggs, err := derive(t).Aggregate(ByDurationBucket)
	require.NoError(t, err)
	require.Len(t, aggs, 5)
	sizes := []int{}
	for _, a := range aggs {
		sizes = append(sizes, a.Videos)
		assert.Equal(t, a.Videos == 0, a.Empty)
	}
	assert.Equal(t, []int{1, 1, 0, 1, 0}, sizes)
}

func TestGroupByPlatformSkipsUntagged(t *testing.T) {
	groups, err := derive(t).GroupBy(ByPlatform)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "tiktok", groups[0].Key)
}

func TestOptionsValidate(t *testing.T) {
	bad := []Options{
		{HookLowMax: 0.7, HookHighMin: 0.3, DurationEdges: []int64{15}},
		{HookLowMax: 0.3, HookHighMin: 0.7},
		{HookLowMax: 0.3, HookHighMin: 0.7, DurationEdges: []int64{30, 15}},
		{HookLowMax: 0.3, HookHighMin: 0.7, DurationEdges: []int64{0, 15}},
	}
	for i, o := range bad {
		var ce *ConfigurationError
		assert.True(t, errors.As(o.Validate(), &ce), "case %d", i)
	}
	assert.NoError(t, DefaultOptions().Validate())
}

func TestLookup(t *testing.T) {
	m, err := Lookup(" Retention_Rate ")
	require.NoError(t, err)
	assert.Equal(t, "retention_rate", m.Name)

	_, err = Lookup("virality")
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "metric", ce.Param)

	_, err = LookupAll([]string{"views", "views"})
	assert.Error(t, err)

	_, err = derive(t).Column("nope")
	assert.Error(t, err)
	for _, n := range DefaultCorrelationMetrics() {
		_, err := Lookup(n)
		assert.NoError(t, err, n)
	}
}

func TestSummarize(t *testing.T) {
	st := Summarize([]Value{Of(1), Undefined, Of(3), Of(2), Of(4)})
	assert.Equal(t, 4, st.N)
	assert.InDelta(t, 2.5, st.Mean.Or(-1), 1e-12)
	assert.InDelta(t, 2.5, st.Median.Or(-1), 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), st.Std.Or(-1), 1e-12)
	assert.Equal(t, Of(1), st.Min)
	assert.Equal(t, Of(4), st.Max)

	one := Summarize([]Value{Of(2)})
	assert.False(t, one.Std.Defined())
	assert.False(t, Summarize([]Value{Undefined}).Mean.Defined())
}

func TestConstant(t *testing.T) {
	assert.True(t, Constant(nil))
	assert.True(t, Constant([]float64{0.1, 0.1, 0.1}))
	assert.True(t, Constant([]float64{1.0 / 3, 1.0 / 3}))
	assert.False(t, Constant([]float64{0.1, 0.1, 0.2}))
}
