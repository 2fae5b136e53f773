package playback

// OutroTransition is the latch action the boundary poller should take
// after a position sample.
type OutroTransition int

const (
	// OutroNone means the latch is already in the right state.
	OutroNone OutroTransition = iota
	// OutroTrigger means the boundary was crossed forward: set the
	// latch, pause, and mark the file watched.
	OutroTrigger
	// OutroReset means playback rewound below the boundary: clear the
	// latch so progress writes resume.
	OutroReset
)

// ComputeOutroStart computes the outro boundary for a file from its
// total duration and the series' stored credits duration. Every encode
// of an episode has a different duration, so the boundary is always
// derived per playback and never persisted.
func ComputeOutroStart(durationSeconds, creditsDuration int64) int64 {
	start := durationSeconds - creditsDuration
	if start < 0 {
		start = 0
	}
	return start
}

// EvaluateOutro decides the latch transition for one position sample.
// The cycle is unset -> set on a forward crossing, set -> unset on a
// rewind below the boundary, repeating across seeks. At most one
// transition fires per crossing because the result depends on the
// current latch state.
func EvaluateOutro(positionSeconds, durationSeconds, creditsDuration int64, latched bool) OutroTransition {
	if durationSeconds <= 0 {
		return OutroNone
	}

	boundary := ComputeOutroStart(durationSeconds, creditsDuration)

	switch {
	case !latched && positionSeconds >= boundary:
		return OutroTrigger
	case latched && positionSeconds < boundary:
		return OutroReset
	default:
		return OutroNone
	}
}
