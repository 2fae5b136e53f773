package markers

// Markers holds the skip boundaries stored for a series. Fields are
// independently optional: a series may have intro markers without a
// credits duration and vice versa.
//
// Only the credits duration is persisted for the outro side. The outro
// start position differs between encodes of the same episode because
// total duration varies, so it is computed per playback from the current
// file's duration instead of being stored as an absolute timestamp.
type Markers struct {
	IntroStart      *int64 `json:"introStart,omitempty"`
	IntroEnd        *int64 `json:"introEnd,omitempty"`
	CreditsDuration *int64 `json:"creditsDuration,omitempty"`
}

// OutroStart computes the outro boundary for a file with the given total
// duration. Returns false when no credits duration is stored.
func (m *Markers) OutroStart(durationSeconds int64) (int64, bool) {
	if m == nil || m.CreditsDuration == nil {
		return 0, false
	}
	start := durationSeconds - *m.CreditsDuration
	if start < 0 {
		start = 0
	}
	return start, true
}

// Flags holds per-series playback behavior toggles.
// All default to false for a series with no stored settings.
type Flags struct {
	Autoplay  bool `json:"autoplay"`
	SkipIntro bool `json:"skipIntro"`
	SkipOutro bool `json:"skipOutro"`
}

// Settings is the full stored row for a series: behavior flags plus
// optional skip markers.
type Settings struct {
	Flags
	Markers
}

// Kind selects which markers a clear operation removes.
type Kind string

const (
	KindIntro   Kind = "intro"
	KindCredits Kind = "credits"
	KindAll     Kind = "all"
)
