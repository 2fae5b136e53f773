// Package seriesid derives a stable series identity from a video filename.
// The identity is the join key between playback progress and per-series
// settings: the prefix names the show and season, the suffix keeps the
// release-specific remainder so different encodes of the same episode do
// not collide under each other's settings.
package seriesid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Identity is the normalized series identity for a filename.
// A non-episodic file (movie, extra) has an empty Prefix and Suffix.
type Identity struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

// Episodic reports whether the filename was recognized as a series episode.
func (id Identity) Episodic() bool {
	return id.Prefix != ""
}

// Episode pattern: Show.S01E02, show s1e2, Show.S01.E02, Show_S01-E02.
// Season and episode are 1-2 digits; the trailing (\D.*|) guard rejects
// longer digit runs entirely instead of truncating them, so S01E123 is
// treated as non-episodic rather than as episode 12.
var episodePattern = regexp.MustCompile(`(?i)^(.*?)[\.\s_-]*S(\d{1,2})[\.\s_-]*E(\d{1,2})(\D.*|)$`)

// separators that may pad the season/episode marker on either side.
const separators = ".-_ "

// Normalize derives the series identity for filename. It is a pure
// function: the same filename always yields the same identity, and it
// never fails. Filenames without a recognizable S##E## marker yield the
// zero Identity.
func Normalize(filename string) Identity {
	match := episodePattern.FindStringSubmatch(filename)
	if match == nil {
		return Identity{}
	}

	season, err := strconv.Atoi(match[2])
	if err != nil {
		return Identity{}
	}

	prefix := strings.TrimRight(match[1], separators)
	if prefix == "" {
		prefix = fmt.Sprintf("S%02d", season)
	} else {
		prefix = fmt.Sprintf("%s.S%02d", prefix, season)
	}

	suffix := strings.TrimLeft(match[4], separators)

	return Identity{Prefix: prefix, Suffix: suffix}
}
