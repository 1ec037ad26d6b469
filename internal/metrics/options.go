package metrics

import (
	"fmt"
	"strconv"
)

// Options holds the fixed boundaries used by derivation.
type Options struct {
	// HookLowMax: rates below are "low".
	HookLowMax float64
	// HookHighMin: rates at or above are "high"; the rest are "medium".
	HookHighMin float64
	// DurationEdges are right-closed bucket upper bounds in seconds; a final
	// open bucket holds everything above the last edge.
	DurationEdges []int64
}

// DefaultOptions returns the documented thresholds:
// low < 0.3 <= medium < 0.7 <= high, and duration buckets
// (0,15] (15,30] (30,45] (45,60] (60,inf).
func DefaultOptions() Options {
	return Options{
		HookLowMax:    0.3,
		HookHighMin:   0.7,
		DurationEdges: []int64{15, 30, 45, 60},
	}
}

// Validate rejects inconsistent boundaries.
func (o Options) Validate() error {
	if o.HookLowMax < 0 || o.HookHighMin > 1 || o.HookLowMax >= o.HookHighMin {
		return Configf("hook thresholds", "need 0 <= low (%g) < high (%g) <= 1", o.HookLowMax, o.HookHighMin)
	}
	if len(o.DurationEdges) == 0 {
		return Configf("duration edges", "at least one edge is required")
	}
	prev := int64(0)
	for _, e := range o.DurationEdges {
		if e <= prev {
			return Configf("duration edges", "edges must be positive and strictly increasing, got %v", o.DurationEdges)
		}
		prev = e
	}
	return nil
}

// HookBucket is the categorical bucket of hook_watch_rate.
type HookBucket string

const (
	HookLow    HookBucket = "low"
	HookMedium HookBucket = "medium"
	HookHigh   HookBucket = "high"
)

// HookBuckets lists the buckets in ascending order.
func HookBuckets() []HookBucket { return []HookBucket{HookLow, HookMedium, HookHigh} }

// HookBucketOf buckets a hook watch rate.
func (o Options) HookBucketOf(rate float64) HookBucket {
	switch {
	case rate < o.HookLowMax:
		return HookLow
	case rate < o.HookHighMin:
		return HookMedium
	default:
		return HookHigh
	}
}

// DurationBucket is one fixed-width duration bin. Hi == 0 marks the open
// last bin.
type DurationBucket struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Lo    int64  `json:"lo"`
	Hi    int64  `json:"hi"`
}

// Contains reports whether sec falls in (Lo, Hi].
func (b DurationBucket) Contains(sec int64) bool {
	if sec <= b.Lo {
		return false
	}
	return b.Hi == 0 || sec <= b.Hi
}

// DurationBuckets lists every bin, including ones no video falls in.
func (o Options) DurationBuckets() []DurationBucket {
	out := make([]DurationBucket, 0, len(o.DurationEdges)+1)
	lo := int64(0)
	for i, hi := range o.DurationEdges {
		out = append(out, DurationBucket{Index: i, Label: fmt.Sprintf("%d-%ds", lo, hi), Lo: lo, Hi: hi})
		lo = hi
	}
	out = append(out, DurationBucket{Index: len(o.DurationEdges), Label: strconv.FormatInt(lo, 10) + "s+", Lo: lo})
	return out
}

// DurationBucketOf returns the bin holding sec. Durations are validated
// positive at load time.
func (o Options) DurationBucketOf(sec int64) DurationBucket {
	buckets := o.DurationBuckets()
	for _, b := range buckets {
		if b.Contains(sec) {
			return b
		}
	}
	return buckets[0]
}
