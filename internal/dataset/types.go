package dataset

// Video is one row of shortform_videos. Platform is an optional
// informational tag; it is not a foreign key.
type Video struct {
	VideoID       string  `csv:"video_id" validate:"required"`
	CreatorID     string  `csv:"creator_id" validate:"required"`
	FormatType    string  `csv:"format_type" validate:"required"`
	DurationSec   int64   `csv:"duration_sec" validate:"gt=0"`
	Views         int64   `csv:"views" validate:"gte=0"`
	Likes         int64   `csv:"likes" validate:"gte=0"`
	Comments      int64   `csv:"comments" validate:"gte=0"`
	Shares        int64   `csv:"shares" validate:"gte=0"`
	WatchTime     int64   `csv:"watch_time" validate:"gte=0"`
	FullViews     int64   `csv:"full_views" validate:"gte=0,ltefield=Views"`
	HookWatchRate float64 `csv:"hook_watch_rate" validate:"gte=0,lte=1"`
	Platform      string  `csv:"platform"`
}

// Creator is one row of shortform_creators.
type Creator struct {
	CreatorID   string `csv:"creator_id" validate:"required"`
	CreatorName string `csv:"creator_name" validate:"required"`
	Niche       string `csv:"niche" validate:"required"`
	Followers   int64  `csv:"followers" validate:"gte=0"`
}

// Platform is one row of shortform_platforms.
type Platform struct {
	Platform           string  `csv:"platform" validate:"required"`
	DailyUsersMillions int64   `csv:"daily_users_millions" validate:"gte=0"`
	AvgSessionTimeMin  float64 `csv:"avg_session_time_min" validate:"gte=0"`
	AlgorithmType      string  `csv:"algorithm_type" validate:"required"`
}

// Dataset is the validated, read-only result of a load. Accessors return
// copies so callers cannot mutate the loaded snapshot.
type Dataset struct {
	videos    []Video
	creators  []Creator
	platforms []Platform

	creatorIdx  map[string]int
	platformIdx map[string]int
}

// New assembles a Dataset from already-validated rows.
func New(videos []Video, creators []Creator, platforms []Platform) *Dataset {
	d := &Dataset{
		videos:      append([]Video(nil), videos...),
		creators:    append([]Creator(nil), creators...),
		platforms:   append([]Platform(nil), platforms...),
		creatorIdx:  make(map[string]int, len(creators)),
		platformIdx: make(map[string]int, len(platforms)),
	}
	for i, c := range d.creators {
		d.creatorIdx[c.CreatorID] = i
	}
	for i, p := range d.platforms {
		d.platformIdx[p.Platform] = i
	}
	return d
}

func (d *Dataset) Videos() []Video       { return append([]Video(nil), d.videos...) }
func (d *Dataset) Creators() []Creator   { return append([]Creator(nil), d.creators...) }
func (d *Dataset) Platforms() []Platform { return append([]Platform(nil), d.platforms...) }

func (d *Dataset) NumVideos() int    { return len(d.videos) }
func (d *Dataset) NumCreators() int  { return len(d.creators) }
func (d *Dataset) NumPlatforms() int { return len(d.platforms) }

// Creator looks up a creator by id.
func (d *Dataset) Creator(id string) (Creator, bool) {
	i, ok := d.creatorIdx[id]
	if !ok {
		return Creator{}, false
	}
	return d.creators[i], true
}

// Platform looks up a platform by name.
func (d *Dataset) Platform(name string) (Platform, bool) {
	i, ok := d.platformIdx[name]
	if !ok {
		return Platform{}, false
	}
	return d.platforms[i], true
}
