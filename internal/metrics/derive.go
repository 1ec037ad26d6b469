package metrics

import (
	"fmt"

	"github.com/KaramelBytes/shortform-signals/internal/dataset"
)

// Derived holds the per-video computed metrics keyed by VideoID.
type Derived struct {
	VideoID             string     `json:"video_id"`
	RetentionRate       Value      `json:"retention_rate"`
	EngagementRate      Value      `json:"engagement_rate"`
	AvgWatchTimePerView Value      `json:"avg_watch_time_per_view"`
	LikeToViewRatio     Value      `json:"like_to_view_ratio"`
	ShareToViewRatio    Value      `json:"share_to_view_ratio"`
	HookBucket          HookBucket `json:"hook_bucket"`
	DurationBucket      string     `json:"duration_bucket"`
}

// Row is one video joined with its creator and derived metrics.
type Row struct {
	Video   dataset.Video   `json:"video"`
	Creator dataset.Creator `json:"creator"`
	Derived Derived         `json:"derived"`
}

// Table is the immutable derived table every analysis consumes.
type Table struct {
	rows   []Row
	opt    Options
	guards []ComputationGuard

	numCreators  int
	numPlatforms int
}

// DeriveVideo computes the metrics of a single video.
func DeriveVideo(v dataset.Video, opt Options) Derived {
	views := float64(v.Views)
	return Derived{
		VideoID:             v.VideoID,
		RetentionRate:       Ratio(float64(v.FullViews), views),
		EngagementRate:      Ratio(float64(v.Likes+v.Comments+v.Shares), views),
		AvgWatchTimePerView: Ratio(float64(v.WatchTime), views),
		LikeToViewRatio:     Ratio(float64(v.Likes), views),
		ShareToViewRatio:    Ratio(float64(v.Shares), views),
		HookBucket:          opt.HookBucketOf(v.HookWatchRate),
		DurationBucket:      opt.DurationBucketOf(v.DurationSec).Label,
	}
}

// Derive joins every video with its creator and computes derived metrics.
// Ratios over zero views are Undefined and recorded as a zero-denominator
// guard on the table. A video whose creator is absent is an error: the
// loader guarantees referential integrity.
func Derive(ds *dataset.Dataset, opt Options) (*Table, error) {
	if ds == nil {
		return nil, fmt.Errorf("derive: nil dataset")
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	videos := ds.Videos()
	t := &Table{
		rows:         make([]Row, 0, len(videos)),
		opt:          opt,
		numCreators:  ds.NumCreators(),
		numPlatforms: ds.NumPlatforms(),
	}
	zeroViews := 0
	for _, v := range videos {
		c, ok := ds.Creator(v.CreatorID)
		if !ok {
			return nil, fmt.Errorf("derive: video %s references unknown creator %s", v.VideoID, v.CreatorID)
		}
		if v.Views == 0 {
			zeroViews++
		}
		t.rows = append(t.rows, Row{Video: v, Creator: c, Derived: DeriveVideo(v, opt)})
	}
	if zeroViews > 0 {
		t.guards = append(t.guards, ComputationGuard{
			Kind:    GuardZeroDenominator,
			Subject: "views",
			Count:   zeroViews,
			Detail:  fmt.Sprintf("view-based ratios are undefined for %d video(s) with zero views", zeroViews),
		})
	}
	return t, nil
}

// Rows returns a copy of the joined rows in load order.
func (t *Table) Rows() []Row { return append([]Row(nil), t.rows...) }

func (t *Table) Len() int          { return len(t.rows) }
func (t *Table) Options() Options  { return t.opt }
func (t *Table) NumCreators() int  { return t.numCreators }
func (t *Table) NumPlatforms() int { return t.numPlatforms }

// Guards lists the computation guards raised during derivation.
func (t *Table) Guards() []ComputationGuard {
	return append([]ComputationGuard(nil), t.guards...)
}

// Column extracts a named numeric metric for every row, in row order.
func (t *Table) Column(name string) ([]Value, error) {
	m, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = m.Of(r)
	}
	return out, nil
}
