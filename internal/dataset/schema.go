package dataset

// Table names of the persisted schema.
const (
	TableVideos    = "shortform_videos"
	TableCreators  = "shortform_creators"
	TablePlatforms = "shortform_platforms"
)

// Kind is the expected type of a column.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	default:
		return "TEXT"
	}
}

// Column describes one schema column.
type Column struct {
	Name string
	Kind Kind
	// Optional columns may be absent from the header and empty in rows.
	Optional bool
}

// Schema describes one table: its name, primary key and columns in order.
type Schema struct {
	Table   string
	Key     string
	Columns []Column
}

// Column returns the named column definition.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

var (
	VideoSchema = Schema{
		Table: TableVideos,
		Key:   "video_id",
		Columns: []Column{
			{Name: "video_id", Kind: KindText},
			{Name: "creator_id", Kind: KindText},
			{Name: "format_type", Kind: KindText},
			{Name: "duration_sec", Kind: KindInt},
			{Name: "views", Kind: KindInt},
			{Name: "likes", Kind: KindInt},
			{Name: "comments", Kind: KindInt},
			{Name: "shares", Kind: KindInt},
			{Name: "watch_time", Kind: KindInt},
			{Name: "full_views", Kind: KindInt},
			{Name: "hook_watch_rate", Kind: KindFloat},
			{Name: "platform", Kind: KindText, Optional: true},
		},
	}
	CreatorSchema = Schema{
		Table: TableCreators,
		Key:   "creator_id",
		Columns: []Column{
			{Name: "creator_id", Kind: KindText},
			{Name: "creator_name", Kind: KindText},
			{Name: "niche", Kind: KindText},
			{Name: "followers", Kind: KindInt},
		},
	}
	PlatformSchema = Schema{
		Table: TablePlatforms,
		Key:   "platform",
		Columns: []Column{
			{Name: "platform", Kind: KindText},
			{Name: "daily_users_millions", Kind: KindInt},
			{Name: "avg_session_time_min", Kind: KindFloat},
			{Name: "algorithm_type", Kind: KindText},
		},
	}
)

// Schemas lists the three tables in load order.
func Schemas() []Schema {
	return []Schema{CreatorSchema, PlatformSchema, VideoSchema}
}
