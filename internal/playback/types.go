package playback

// Status classifies how much of a file has been watched.
type Status string

const (
	StatusUnwatched Status = "unwatched"
	StatusPartial   Status = "partial"
	StatusWatched   Status = "watched"
)

// Watch-status thresholds in integer percent. Global for all series;
// earlier releases used 99 as the watched cutoff.
const (
	WatchedThreshold = 90
	PartialThreshold = 1
)

// StatusFor derives the watch status from a percent-complete value and
// the outro latch. A latched file is watched regardless of percent, so a
// late low-percent progress write cannot downgrade it.
func StatusFor(percent int, outroTriggered bool) Status {
	if outroTriggered || percent >= WatchedThreshold {
		return StatusWatched
	}
	if percent >= PartialThreshold {
		return StatusPartial
	}
	return StatusUnwatched
}

// PercentComplete computes integer percent watched, rounded down.
// Returns 0 when duration is not positive.
func PercentComplete(positionSeconds, durationSeconds int64) int {
	if durationSeconds <= 0 {
		return 0
	}
	return int(positionSeconds * 100 / durationSeconds)
}

// Record is the stored playback progress for a single file. Files are
// keyed by basename alone, so two files with the same basename in
// different directories share a record. That is a known limitation of
// the on-disk format, kept for compatibility with existing state.
type Record struct {
	Filename       string `json:"filename"`
	Position       int64  `json:"position"`
	Duration       int64  `json:"duration"`
	Percent        int    `json:"percent"`
	SeriesPrefix   string `json:"seriesPrefix,omitempty"`
	SeriesSuffix   string `json:"seriesSuffix,omitempty"`
	DebugNote      string `json:"debugNote,omitempty"`
	OutroTriggered bool   `json:"outroTriggered"`
}

// Status derives the watch status for the record.
func (r *Record) Status() Status {
	return StatusFor(r.Percent, r.OutroTriggered)
}

// SaveInput carries one progress write-through.
type SaveInput struct {
	Filename     string
	Position     int64
	Duration     int64
	Percent      int
	SeriesPrefix string
	SeriesSuffix string
	DebugNote    string
}

// OtherVersion describes a different encode of the same series prefix:
// its release suffix, the most recently touched filename, and the
// highest percent watched across its files.
type OtherVersion struct {
	Suffix       string `json:"suffix"`
	LastFilename string `json:"lastFilename"`
	MaxPercent   int    `json:"maxPercent"`
}
